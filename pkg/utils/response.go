package utils

import (
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// ErrorResponse writes {"error": message}.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, errorBody{Error: message})
}

// TypedErrorResponse writes {"error": message, "type": kind}.
func TypedErrorResponse(c *gin.Context, code int, message, kind string) {
	c.JSON(code, errorBody{Error: message, Type: kind})
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
