package entity

import "time"

// Profile is the application-facing member record, keyed by User ID.
// Exactly one Profile exists per User; it is provisioned alongside the
// User at sign-up and never created explicitly by the client.
type Profile struct {
	ID            string    `json:"id"`
	FirstName     *string   `json:"first_name"`
	LastName      *string   `json:"last_name"`
	Email         *string   `json:"email"`
	AvatarURL     *string   `json:"avatar_url"`
	Phone         *string   `json:"phone"`
	Address       *string   `json:"address"`
	Bio           *string   `json:"bio"`
	MinistryRoles []string  `json:"ministry_roles"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfilePatch is a partial update applied to a Profile row. Nil fields are
// left untouched; SetAvatarNull clears avatar_url explicitly since a nil
// AvatarURL alone means "no change".
type ProfilePatch struct {
	FirstName     *string  `json:"first_name,omitempty"`
	LastName      *string  `json:"last_name,omitempty"`
	Email         *string  `json:"email,omitempty"`
	AvatarURL     *string  `json:"avatar_url,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Address       *string  `json:"address,omitempty"`
	Bio           *string  `json:"bio,omitempty"`
	MinistryRoles []string `json:"ministry_roles,omitempty"`
	SetAvatarNull bool     `json:"-"`
}

// IsZero reports whether the patch carries no changes at all.
func (p ProfilePatch) IsZero() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.AvatarURL == nil && p.Phone == nil && p.Address == nil &&
		p.Bio == nil && p.MinistryRoles == nil && !p.SetAvatarNull
}
