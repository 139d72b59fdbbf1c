package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// List writes rows as a 200 JSON array; nil encodes as [] rather than null.
func List[T any](c *gin.Context, rows []T) {
	if rows == nil {
		rows = []T{}
	}
	OK(c, rows)
}
