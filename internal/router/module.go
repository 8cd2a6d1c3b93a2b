package router

import "github.com/gin-gonic/gin"

// Module is a feature area that knows how to mount its own routes.
type Module interface {
	Register(rg *gin.RouterGroup)
}
