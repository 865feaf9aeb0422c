package http

import (
	"github.com/gin-gonic/gin"

	"github.com/AlanChernakoff/Photogame/internal/service"
)

func ErrorResponse(c *gin.Context, code int, kind service.Kind, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message, "kind": kind})
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}
