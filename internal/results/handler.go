package results

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vision-router/internal/shared/server/respond"
)

// Handler serves stored results and the average-latency leaderboard.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches result routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyze/result/:id", h.get)
	rg.GET("/leaderboard", h.leaderboard)
}

func (h *Handler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	entry, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Result not found for ID: "+id, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to read result", nil)
		}
		return
	}

	respond.OK(c, entry)
}

func (h *Handler) leaderboard(c *gin.Context) {
	task := strings.TrimSpace(c.Query("task"))

	rows, err := h.Repo.AggregateByModel(c.Request.Context(), task)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "storage_error", "failed to read result log", nil)
		return
	}
	respond.List(c, rows)
}
