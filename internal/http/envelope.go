package http

import "github.com/gin-gonic/gin"

// Envelope es la forma unica de respuesta de todos los endpoints de auth,
// para que el cliente tenga un solo camino de parseo.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    gin.H        `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, status int, message string, data gin.H) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{
		Success: false,
		Message: message,
	})
}

func respondValidation(c *gin.Context, status int, fieldErrors []FieldError) {
	c.JSON(status, Envelope{
		Success: false,
		Message: "Validation failed",
		Errors:  fieldErrors,
	})
}
