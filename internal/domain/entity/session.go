package entity

import "time"

// Session is the ephemeral credential bundle tied 1:1 to a User. It is
// created on sign-in/sign-up, rotated on refresh and destroyed on sign-out.
type Session struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
	User               *User
}
