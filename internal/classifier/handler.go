package classifier

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-router/internal/probe"
	"vision-router/internal/shared/config"
	"vision-router/internal/shared/server/respond"
)

// Handler exposes the cascade and the secondary-endpoint connectivity check.
type Handler struct {
	Cascade *Cascade
	Prober  *probe.Prober
	URLs    []string
}

// NewHandler builds a Handler for cascade using the secondary candidates
// from cfg.
func NewHandler(cascade *Cascade, cfg config.ClassifierConfig) *Handler {
	return &Handler{
		Cascade: cascade,
		Prober:  probe.New(cfg.ProbeTimeout),
		URLs:    cfg.SecondaryURLs,
	}
}

// RegisterRoutes attaches the classifier routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/classifier")
	g.GET("/connectivity", h.connectivity)
	g.POST("/classify", h.classify)
}

type connectivityResponse struct {
	Reachable  string         `json:"reachable"`
	Candidates []probe.Report `json:"candidates"`
}

func (h *Handler) connectivity(c *gin.Context) {
	reports := h.Prober.Check(c.Request.Context(), h.URLs)
	resp := connectivityResponse{Candidates: reports}
	for _, r := range reports {
		if r.Reachable {
			resp.Reachable = r.URL
			break
		}
	}
	respond.OK(c, resp)
}

type classifyRequest struct {
	Question     string `json:"question"`
	ImageContext string `json:"image_context"`
}

func (h *Handler) classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		return
	}

	res := h.Cascade.Resolve(c.Request.Context(), Request{
		Question:     req.Question,
		ImageContext: req.ImageContext,
	})
	respond.OK(c, gin.H{
		"task": res.Label.String(),
		"tier": res.Tier,
	})
}
