package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eastgatechurch/eastgate-app/internal/container"
	handlers "github.com/eastgatechurch/eastgate-app/internal/interface/http"
	"github.com/eastgatechurch/eastgate-app/internal/interface/middleware"
	"github.com/eastgatechurch/eastgate-app/pkg/helpers"
)

// AuthModule registers the authentication endpoints.
// Public: login, signup, refresh, reset init/confirm, verify confirm/resend.
// Protected: logout, session snapshot, password update.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	signupLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)
	resetLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	confirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/signup", signupLimiter, m.Handler.SignUp)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/auth/reset/init", resetLimiter, m.Handler.ResetInit)
	rg.POST("/auth/reset/confirm", confirmLimiter, m.Handler.ResetConfirm)
	rg.POST("/auth/verify/confirm", confirmLimiter, m.Handler.VerifyConfirm)
	rg.POST("/auth/verify/resend", resetLimiter, m.Handler.VerifyResend)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.GET("/auth/session", m.Handler.Session)
		auth.PUT("/auth/password", m.Handler.UpdatePassword)
	}
}
