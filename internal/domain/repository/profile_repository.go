package repository

import (
	"context"
	"errors"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
)

// ErrProfileNotFound reports a missing profile row.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines the interface for profile-row access.
// Patch applies a partial update keyed by user id and returns the updated
// row; Lookup runs the get_user_profile function and returns the first row
// of the list-shaped result, or nil when no row matches.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	Patch(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.Profile, error)
	Lookup(ctx context.Context, userID string) (*entity.Profile, error)
	Create(ctx context.Context, p *entity.Profile) error
}
