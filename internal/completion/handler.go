package completion

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vision-router/internal/shared/server/respond"
)

type predictRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

type predictResponse struct {
	Response string  `json:"response"`
	Latency  float64 `json:"latency"`
	Model    string  `json:"model"`
}

// Handler serves the local completion endpoint used as the default
// primary classifier.
type Handler struct {
	now func() time.Time
}

// NewHandler creates a completion handler.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// RegisterRoutes mounts /qwen/predict and /qwen/health.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/qwen")
	g.POST("/predict", h.predict)
	g.GET("/health", h.health)
}

func (h *Handler) predict(c *gin.Context) {
	start := h.now()

	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "prompt is required", nil)
		return
	}

	label := Predict(req.Prompt)
	latency := h.now().Sub(start).Seconds()
	respond.OK(c, predictResponse{
		Response: label.String(),
		Latency:  math.Round(latency*10000) / 10000,
		Model:    ModelName,
	})
}

func (h *Handler) health(c *gin.Context) {
	respond.OK(c, gin.H{"status": "healthy", "model": ModelName})
}
