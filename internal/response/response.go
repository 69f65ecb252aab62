package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Message string            `json:"message"`
	Code    ErrCode           `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MessageBody is the body of a successful mutation.
type MessageBody struct {
	Message string `json:"message"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends data as the whole response body. Lists stay bare JSON arrays.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Message sends {"message": msg}.
func Message(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, MessageBody{Message: msg})
}

// Fail sends an error response with the code's standard message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, ErrorBody{Code: code, Message: GetMessage(code)})
}

// FailWithMessage sends an error response with a message specific to this failure.
func FailWithMessage(c *gin.Context, statusCode int, code ErrCode, msg string) {
	c.JSON(statusCode, ErrorBody{Code: code, Message: msg})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, ErrorBody{Code: code, Message: GetMessage(code), Fields: fields})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Code: code, Message: GetMessage(code)})
}

// RequestID returns the id assigned by RequestIDMiddleware.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
