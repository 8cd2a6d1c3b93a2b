package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/internal/application"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/internal/infrastructure/authprovider"
	"github.com/eastgatechurch/eastgate-app/internal/interface/middleware"
	"github.com/eastgatechurch/eastgate-app/pkg/helpers"
	"github.com/eastgatechurch/eastgate-app/pkg/response"
	"github.com/eastgatechurch/eastgate-app/pkg/validation"
)

type AuthHandler struct {
	Auth     *application.AuthService
	Observer *application.SessionObserver
	Provider *authprovider.Provider
	Logger   *logrus.Logger
	Cfg      *config.Config
	Cookies  *helpers.Manager
}

func NewAuthHandler(auth *application.AuthService, observer *application.SessionObserver, p *authprovider.Provider, logger *logrus.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		Auth:     auth,
		Observer: observer,
		Provider: p,
		Logger:   logger,
		Cfg:      cfg,
		Cookies:  helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signUpRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type passwordRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	sess, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var verr *application.ValidationError
		if errors.As(err, &verr) {
			response.Error[any](c, http.StatusBadRequest, verr.Message, map[string]string{verr.Field: verr.Message})
			return
		}
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, sess.AccessToken, sess.AccessTokenExpiry, sess.RefreshToken, sess.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user_id": sess.User.ID,
		"email":   sess.User.Email,
	}, "login successful", map[string]any{
		"access_expires_at":  sess.AccessTokenExpiry,
		"refresh_expires_at": sess.RefreshTokenExpiry,
	})
}

// SignUp POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Auth.SignUp(c.Request.Context(), req.Email, req.Password, map[string]string{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
	})
	if err != nil {
		var verr *application.ValidationError
		switch {
		case errors.As(err, &verr):
			response.Error[any](c, http.StatusBadRequest, verr.Message, map[string]string{verr.Field: verr.Message})
		case errors.Is(err, provider.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "email already registered", nil)
		default:
			response.Error[any](c, http.StatusInternalServerError, "sign up failed", nil)
		}
		return
	}

	body := gin.H{"user_id": res.User.ID, "email": res.User.Email, "verification_required": res.Session == nil}
	if res.Session != nil {
		h.Cookies.SetPair(c, res.Session.AccessToken, res.Session.AccessTokenExpiry, res.Session.RefreshToken, res.Session.RefreshTokenExpiry)
	}
	response.Success(c, http.StatusCreated, body, "account created", nil)
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if uid := c.GetString(middleware.CtxUserIDKey); uid != "" {
		if err := h.Provider.SignOutUser(c.Request.Context(), uid); err != nil {
			h.Logger.WithError(err).Warn("sign out cleanup failed")
		}
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	sess, err := h.Provider.RefreshSession(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, sess.AccessToken, sess.AccessTokenExpiry, sess.RefreshToken, sess.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", map[string]any{
		"access_expires_at":  sess.AccessTokenExpiry,
		"refresh_expires_at": sess.RefreshTokenExpiry,
	})
}

// ResetInit POST /api/auth/reset/init {email}
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email); err != nil {
		var verr *application.ValidationError
		if errors.As(err, &verr) {
			response.Error[any](c, http.StatusBadRequest, verr.Message, map[string]string{verr.Field: verr.Message})
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "reset failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "reset email sent", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {token, password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if res := validation.ValidatePassword(req.Password); !res.Valid {
		response.Error[any](c, http.StatusBadRequest, res.Message, map[string]string{"password": res.Message})
		return
	}
	if err := h.Provider.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password reset", nil)
}

// VerifyConfirm POST /api/auth/verify/confirm {token}
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Provider.ConfirmVerification(c.Request.Context(), req.Token); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// VerifyResend POST /api/auth/verify/resend {email}
func (h *AuthHandler) VerifyResend(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	sent := h.Observer.ResendVerificationEmail(c.Request.Context(), req.Email)
	response.Success(c, http.StatusOK, gin.H{"sent": sent}, "verification email", nil)
}

// UpdatePassword PUT /api/auth/password (auth required)
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "no authenticated user", nil)
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if res := validation.ValidatePassword(req.Password); !res.Valid {
		response.Error[any](c, http.StatusBadRequest, res.Message, map[string]string{"password": res.Message})
		return
	}
	if _, err := h.Provider.UpdateUserPassword(c.Request.Context(), uid, req.Password); err != nil {
		if errors.Is(err, provider.ErrUserNotFound) {
			response.Error[any](c, http.StatusUnauthorized, "no authenticated user", nil)
			return
		}
		response.Error[any](c, http.StatusInternalServerError, "password update failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "password updated", nil)
}

// Session GET /api/auth/session returns the observer's current snapshot.
func (h *AuthHandler) Session(c *gin.Context) {
	st := h.Observer.Snapshot()
	body := gin.H{
		"is_authenticated":  st.IsAuthenticated,
		"loading":           st.Loading,
		"is_email_verified": st.IsEmailVerified,
	}
	if st.User != nil {
		body["user"] = gin.H{"id": st.User.ID, "email": st.User.Email}
	}
	response.Success(c, http.StatusOK, body, "session", nil)
}
