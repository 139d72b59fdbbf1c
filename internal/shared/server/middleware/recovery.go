package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"vision-router/internal/shared/metrics"
	"vision-router/internal/shared/server/respond"
	"vision-router/internal/shared/telemetry"
)

// Recovery converts a handler panic into the standard 500 envelope. Nothing
// about the panic value reaches the client.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanicRecovered()
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"route":      c.FullPath(),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
