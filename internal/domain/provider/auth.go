package provider

import (
	"context"
	"errors"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthEventType identifies an auth-state-change event.
type AuthEventType string

const (
	SignedIn       AuthEventType = "SIGNED_IN"
	SignedOut      AuthEventType = "SIGNED_OUT"
	TokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	UserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is the typed payload delivered to auth-state-change handlers.
// Session is nil for SignedOut.
type AuthEvent struct {
	Type    AuthEventType
	Session *entity.Session
}

// Unsubscribe releases an auth-state-change registration. Safe to call
// more than once.
type Unsubscribe func()

// SignUpOptions carries the post-verification redirect target and optional
// metadata forwarded to the provider on registration.
type SignUpOptions struct {
	EmailRedirectTo string
	Metadata        map[string]string
}

// SignUpResult is the registration outcome. Session stays nil until the
// email is verified when the provider enforces verification.
type SignUpResult struct {
	User    *entity.User
	Session *entity.Session
}

// AuthProvider is the backend auth client the application delegates
// identity to. Implementations own session persistence and token refresh;
// events are emitted in the order state changes are applied.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error)
	SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*SignUpResult, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	ResendVerification(ctx context.Context, email, redirectTo string) error
	UpdateUser(ctx context.Context, password string) (*entity.User, error)
	GetSession(ctx context.Context) (*entity.Session, error)
	GetUser(ctx context.Context) (*entity.User, error)
	OnAuthStateChange(handler func(AuthEvent)) Unsubscribe
}
