package entity

import (
	"time"
)

// User is the identity record owned by the auth provider. The application
// holds a read-only copy; Password carries the bcrypt hash and never leaves
// the provider boundary.
type User struct {
	ID               string
	Email            string
	Password         string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsEmailVerified reports whether the user has confirmed their email address.
func (u *User) IsEmailVerified() bool {
	return u != nil && u.EmailConfirmedAt != nil && !u.EmailConfirmedAt.IsZero()
}
