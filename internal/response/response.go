// Package response defines the gateway response envelope shared by the
// client (decoding) and the stub gateways (encoding).
package response

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// Envelope is the wire format both gateways wrap every response in.
// Data stays raw so each caller can decode its own payload type.
type Envelope struct {
	Success bool            `json:"success"`
	Status  int             `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type body struct {
	Success bool        `json:"success"`
	Status  int         `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, body{Success: true, Status: statusCode, Data: data})
}

// Fail sends an error response for the given error code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, body{Success: false, Status: statusCode, Message: GetMessage(code)})
}

// FailMessage sends an error response with a caller-supplied message,
// used for field-level validation detail.
func FailMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, body{Success: false, Status: statusCode, Message: message})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, body{Success: false, Status: statusCode, Message: GetMessage(code)})
}
