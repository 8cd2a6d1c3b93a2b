package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/internal/application"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/interface/middleware"
	"github.com/eastgatechurch/eastgate-app/pkg/response"
	"github.com/eastgatechurch/eastgate-app/pkg/validation"
)

type ProfileHandler struct {
	Profiles *application.ProfileService
	Avatars  *application.AvatarService
	Logger   *logrus.Logger
}

func NewProfileHandler(profiles *application.ProfileService, avatars *application.AvatarService, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Avatars: avatars, Logger: logger}
}

type updateProfileRequest struct {
	FirstName     *string  `json:"first_name"`
	LastName      *string  `json:"last_name"`
	Email         *string  `json:"email"`
	Phone         *string  `json:"phone"`
	Address       *string  `json:"address"`
	Bio           *string  `json:"bio"`
	MinistryRoles []string `json:"ministry_roles"`
}

type avatarUploadRequest struct {
	Image string `json:"image" binding:"required"` // base64, data-URL prefix allowed
}

// requestUserID returns the user id the Auth middleware extracted from the
// bearer token. The ambient provider session is never consulted here, it
// belongs to a single client and two signed-in users would bleed into each
// other.
func requestUserID(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "no authenticated user", nil)
		return "", false
	}
	return uid, true
}

// Get GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	uid, ok := requestUserID(c)
	if !ok {
		return
	}
	p, err := h.Profiles.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to fetch profile", nil)
		return
	}
	if p == nil {
		response.Error[any](c, http.StatusNotFound, "profile not found", nil)
		return
	}
	response.Success(c, http.StatusOK, p, "profile", nil)
}

// GetByID GET /api/profile/:id
func (h *ProfileHandler) GetByID(c *gin.Context) {
	p, err := h.Profiles.GetProfileByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "failed to fetch profile", nil)
		return
	}
	if p == nil {
		response.Error[any](c, http.StatusNotFound, "profile not found", nil)
		return
	}
	response.Success(c, http.StatusOK, p, "profile", nil)
}

// Update PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	patch := entity.ProfilePatch{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Bio:           req.Bio,
		MinistryRoles: req.MinistryRoles,
	}
	uid, ok := requestUserID(c)
	if !ok {
		return
	}
	p, err := h.Profiles.UpdateProfileFor(c.Request.Context(), uid, patch)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "failed to update profile", nil)
		return
	}
	response.Success(c, http.StatusOK, p, "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	var req avatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, ok := requestUserID(c)
	if !ok {
		return
	}
	url, err := h.Avatars.UploadBase64For(c.Request.Context(), uid, req.Image)
	if err != nil {
		h.writeAvatarError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar uploaded", nil)
}

// DeleteAvatar DELETE /api/profile/avatar
func (h *ProfileHandler) DeleteAvatar(c *gin.Context) {
	uid, ok := requestUserID(c)
	if !ok {
		return
	}
	if err := h.Avatars.RemoveFor(c.Request.Context(), uid); err != nil {
		h.writeAvatarError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"removed": true}, "avatar removed", nil)
}

// Search GET /api/profiles/search?q=...
func (h *ProfileHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	res, err := h.Profiles.SearchProfiles(c.Request.Context(), q, 10)
	if err != nil {
		h.Logger.WithError(err).Warn("profile search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, res, "search results", nil)
}

func (h *ProfileHandler) writeAvatarError(c *gin.Context, err error) {
	var aerr *application.AvatarError
	switch {
	case errors.Is(err, application.ErrNoAuthenticatedUser):
		response.Error[any](c, http.StatusUnauthorized, "no authenticated user", nil)
	case errors.As(err, &aerr):
		status := http.StatusBadRequest
		if aerr.Stage == application.StageUploading || aerr.Stage == application.StageCommitting || aerr.Stage == application.StageRemoving {
			status = http.StatusBadGateway
		}
		response.Error[any](c, status, aerr.Message, gin.H{"stage": aerr.Stage})
	default:
		response.Error[any](c, http.StatusInternalServerError, "avatar operation failed", nil)
	}
}
