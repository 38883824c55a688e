package http

import "github.com/gin-gonic/gin"

// Envelope is the uniform response body. Success responses carry data and an
// optional message; error responses carry a message and an optional code.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// Success writes the success envelope with the given status code.
func Success(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes the error envelope with the given status code.
func Error(c *gin.Context, status int, message, code string) {
	c.JSON(status, Envelope{Success: false, Error: message, ErrorCode: code})
}

// Internal writes a generic 500. Detail stays server-side; callers log it.
func Internal(c *gin.Context) {
	Error(c, 500, "Internal server error", "INTERNAL_ERROR")
}
