package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the uniform failure payload.
type ErrorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorBody{
		Error:   true,
		Message: message,
	})
}

// AbortWithError writes the error body and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorBody{
		Error:   true,
		Message: message,
	})
}
