package modelmetrics

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-router/internal/shared/server/respond"
)

// Handler exposes the latency recorder over HTTP.
type Handler struct {
	Store Store
}

// NewHandler constructs a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches /metrics/record, /metrics/leaderboard and
// /metrics/model_stats.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/metrics")
	g.POST("/record", h.record)
	g.GET("/leaderboard", h.leaderboard)
	g.GET("/model_stats", h.stats)
}

func (h *Handler) record(c *gin.Context) {
	model := strings.TrimSpace(c.Query("model_name"))
	task := strings.TrimSpace(c.Query("task"))
	latency, err := strconv.ParseFloat(c.Query("latency"), 64)
	if model == "" || task == "" || err != nil || latency < 0 || math.IsNaN(latency) || math.IsInf(latency, 0) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "model_name, latency and task are required", nil)
		return
	}

	if err := h.Store.Record(c.Request.Context(), Sample{Model: model, LatencySeconds: latency, Task: task}); err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to record metric", nil)
		return
	}

	respond.OK(c, gin.H{"message": "Metric recorded successfully"})
}

func (h *Handler) leaderboard(c *gin.Context) {
	limit := DefaultLeaderboardLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}

	rows, err := h.Store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to read metrics", nil)
		return
	}
	respond.List(c, rows)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Store.Stats(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to read metrics", nil)
		return
	}

	respond.OK(c, stats)
}
