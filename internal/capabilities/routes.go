package capabilities

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-router/internal/dispatch"
	"vision-router/internal/shared/server/respond"
	"vision-router/internal/shared/telemetry"
)

// Handler exposes capability handlers over HTTP.
type Handler struct {
	handlers map[string]dispatch.Handler
}

// NewHandler wraps the handler set built by LocalHandlers.
func NewHandler(handlers map[string]dispatch.Handler) *Handler {
	return &Handler{handlers: handlers}
}

// RegisterRoutes mounts POST /task/:handler.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/task/:handler", h.runTask)
}

func (h *Handler) runTask(c *gin.Context) {
	id := c.Param("handler")
	th, ok := h.handlers[id]
	if !ok || th == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "Unknown task handler: "+id, nil)
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "Invalid JSON body", nil)
		return
	}
	if strings.TrimSpace(req.ImagePath) == "" && strings.TrimSpace(req.ImageKey) == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "image_path or image_key is required", nil)
		return
	}

	res, err := th.Handle(c.Request.Context(), dispatch.Input{
		ImagePath: req.ImagePath,
		ImageKey:  req.ImageKey,
		Question:  req.Question,
	})
	if err != nil {
		telemetry.Error("capability.handle_failed", map[string]any{
			"handler": id,
			"error":   err,
		})
		respond.Error(c, http.StatusBadGateway, "handler_failed", "Task handling failed", nil)
		return
	}
	respond.OK(c, res)
}
