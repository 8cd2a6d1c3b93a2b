package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eastgatechurch/eastgate-app/internal/container"
	handlers "github.com/eastgatechurch/eastgate-app/internal/interface/http"
	"github.com/eastgatechurch/eastgate-app/internal/interface/middleware"
	"github.com/eastgatechurch/eastgate-app/pkg/helpers"
)

// ProfileModule registers the profile and avatar endpoints; everything
// here requires an authenticated session.
type ProfileModule struct {
	Handler *handlers.ProfileHandler
	JWT     *helpers.JWTManager
}

func NewProfileModule(h *handlers.ProfileHandler, jwt *helpers.JWTManager) *ProfileModule {
	return &ProfileModule{Handler: h, JWT: jwt}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP()),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/profile", m.Handler.Get)
		auth.PUT("/profile", m.Handler.Update)
		auth.GET("/profile/:id", m.Handler.GetByID)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
		auth.DELETE("/profile/avatar", m.Handler.DeleteAvatar)
		auth.GET("/profiles/search", m.Handler.Search)
	}
}
