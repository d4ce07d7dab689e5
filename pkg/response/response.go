// Package response holds the JSON shapes shared by all HTTP handlers.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error envelope: a human-readable message under "error".
type ErrorBody struct {
	Error string `json:"error"`
}

// OK sends a 200 JSON response with the given body as-is. Success bodies are
// endpoint-specific, so no envelope is imposed here.
func OK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// BadRequest sends 400 with an error message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

// NotFound sends 404.
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: msg})
}

// Internal sends 500.
func Internal(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: msg})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: msg})
}
