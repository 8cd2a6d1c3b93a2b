package application

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/pkg/imaging"
)

// ErrPermissionDenied is returned by an ImageSource when the user refuses
// camera or photo-library access. It is terminal; no later stage runs.
var ErrPermissionDenied = errors.New("permission denied")

// CapturedImage is one image obtained from the camera or photo library.
type CapturedImage struct {
	Data        []byte
	ContentType string
}

// ImageSource abstracts the OS capture/selection integration. Capture
// returns exactly one image or ErrPermissionDenied.
type ImageSource interface {
	Capture(ctx context.Context) (*CapturedImage, error)
}

// AvatarService runs the avatar pipeline: capture, process to a fixed
// square JPEG, upload to object storage under the deterministic key
// "{userID}/avatar", then commit the public URL onto the profile row and
// into the cache. Each stage failure maps to a stage-specific message.
type AvatarService struct {
	Provider provider.AuthProvider
	Storage  provider.ObjectStorage
	Profiles *ProfileService
	Cache    *ProfileManager
	Logger   *logrus.Logger
	Size     int
	Quality  int
}

func NewAvatarService(p provider.AuthProvider, storage provider.ObjectStorage, profiles *ProfileService, cache *ProfileManager, logger *logrus.Logger, size, quality int) *AvatarService {
	return &AvatarService{Provider: p, Storage: storage, Profiles: profiles, Cache: cache, Logger: logger, Size: size, Quality: quality}
}

// AvatarPath is the deterministic object key for a user's avatar; uploads
// are idempotent upserts at this key.
func AvatarPath(userID string) string {
	return userID + "/avatar"
}

// Capture obtains one image from the source and runs the rest of the
// pipeline on it.
func (s *AvatarService) Capture(ctx context.Context, src ImageSource) (string, error) {
	img, err := src.Capture(ctx)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return "", &AvatarError{Stage: StageCapturing, Message: "Please grant camera or photo library permission to set a profile photo", Err: err}
		}
		return "", &AvatarError{Stage: StageCapturing, Message: "Unable to take photo. Please try again.", Err: err}
	}
	encoded := base64.StdEncoding.EncodeToString(img.Data)
	return s.UploadBase64(ctx, encoded)
}

// UploadBase64 processes a base64 image payload (data-URL prefixes are
// stripped), uploads it and commits the resulting public URL. UpdateProfile
// runs exactly once per successful upload. Identity comes from the ambient
// session; request-scoped callers use UploadBase64For.
func (s *AvatarService) UploadBase64(ctx context.Context, base64Image string) (string, error) {
	sess, err := s.Provider.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil || sess.User == nil {
		return "", ErrNoAuthenticatedUser
	}
	return s.UploadBase64For(ctx, sess.User.ID, base64Image)
}

// UploadBase64For runs the processing/upload/commit stages for an explicit
// user id, already authenticated by the caller.
func (s *AvatarService) UploadBase64For(ctx context.Context, userID, base64Image string) (string, error) {
	// Processing: decode and normalize to a fixed square JPEG. Local only,
	// no network dependency.
	raw, err := imaging.DecodeBase64(base64Image)
	if err != nil {
		return "", &AvatarError{Stage: StageProcessing, Message: "Failed to process profile picture. Please try again.", Err: err}
	}
	jpegData, err := imaging.Normalize(raw, s.Size, s.Quality)
	if err != nil {
		return "", &AvatarError{Stage: StageProcessing, Message: "Failed to process profile picture. Please try again.", Err: err}
	}

	// Uploading: idempotent upsert at the deterministic key.
	path := AvatarPath(userID)
	err = s.Storage.Upload(ctx, path, jpegData, provider.UploadOptions{ContentType: "image/jpeg", Upsert: true})
	if err != nil {
		s.Logger.WithError(err).WithField("path", path).Error("avatar upload failed")
		return "", &AvatarError{Stage: StageUploading, Message: "Failed to upload profile picture. Please try again.", Err: err}
	}

	// Committing: persist the public URL on the profile row, then update
	// the cache optimistically.
	publicURL := s.Storage.GetPublicURL(path)
	if _, err := s.Profiles.UpdateProfileFor(ctx, userID, entity.ProfilePatch{AvatarURL: &publicURL}); err != nil {
		return "", &AvatarError{Stage: StageCommitting, Message: "Failed to save profile picture. Please try again.", Err: err}
	}
	if s.Cache != nil {
		s.Cache.SetAvatarURL(userID, &publicURL)
	}
	return publicURL, nil
}

// Remove deletes the avatar object, then clears avatar_url on the profile.
// Without an existing avatar it is a no-op that never touches storage; if
// the delete fails the profile is left unchanged.
func (s *AvatarService) Remove(ctx context.Context) error {
	sess, err := s.Provider.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil || sess.User == nil {
		return ErrNoAuthenticatedUser
	}
	return s.RemoveFor(ctx, sess.User.ID)
}

// RemoveFor runs the removal path for an explicit user id, already
// authenticated by the caller.
func (s *AvatarService) RemoveFor(ctx context.Context, userID string) error {
	current, err := s.Profiles.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if current == nil || current.AvatarURL == nil || *current.AvatarURL == "" {
		return nil
	}

	path := AvatarPath(userID)
	if err := s.Storage.Remove(ctx, []string{path}); err != nil {
		s.Logger.WithError(err).WithField("path", path).Error("avatar delete failed")
		return &AvatarError{Stage: StageRemoving, Message: "Failed to remove profile picture. Please try again.", Err: err}
	}

	if _, err := s.Profiles.UpdateProfileFor(ctx, userID, entity.ProfilePatch{SetAvatarNull: true}); err != nil {
		return &AvatarError{Stage: StageCommitting, Message: "Failed to remove profile picture. Please try again.", Err: err}
	}
	if s.Cache != nil {
		s.Cache.SetAvatarURL(userID, nil)
	}
	return nil
}
