package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/pkg/validation"
)

// AuthService fronts the backend auth provider with local input validation
// so malformed input never costs a network round-trip. Backend failures are
// surfaced unchanged; this layer never retries.
type AuthService struct {
	Provider provider.AuthProvider
	Logger   *logrus.Logger
	Cfg      *config.Config
}

func NewAuthService(p provider.AuthProvider, logger *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{Provider: p, Logger: logger, Cfg: cfg}
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	if res := validation.ValidateEmail(email); !res.Valid {
		return nil, &ValidationError{Field: "email", Message: res.Message}
	}
	sess, err := s.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("sign in failed")
		return nil, err
	}
	return sess, nil
}

// SignUp registers a new account. The provider is handed the
// post-verification deep link; Session in the result stays nil until the
// email is verified when the provider enforces verification.
func (s *AuthService) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*provider.SignUpResult, error) {
	if res := validation.ValidateEmail(email); !res.Valid {
		return nil, &ValidationError{Field: "email", Message: res.Message}
	}
	if res := validation.ValidatePassword(password); !res.Valid {
		return nil, &ValidationError{Field: "password", Message: res.Message}
	}
	out, err := s.Provider.SignUp(ctx, email, password, provider.SignUpOptions{
		EmailRedirectTo: s.Cfg.LoginRedirectURL(),
		Metadata:        metadata,
	})
	if err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("sign up failed")
		return nil, err
	}
	return out, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	if res := validation.ValidateEmail(email); !res.Valid {
		return &ValidationError{Field: "email", Message: res.Message}
	}
	if err := s.Provider.ResetPasswordForEmail(ctx, email, s.Cfg.ResetRedirectURL()); err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("password reset failed")
		return err
	}
	return nil
}

// UpdatePassword applies the same strength rules as SignUp before
// delegating; the password policy holds everywhere a password is chosen.
func (s *AuthService) UpdatePassword(ctx context.Context, password string) (*entity.User, error) {
	if res := validation.ValidatePassword(password); !res.Valid {
		return nil, &ValidationError{Field: "password", Message: res.Message}
	}
	u, err := s.Provider.UpdateUser(ctx, password)
	if err != nil {
		s.Logger.WithError(err).Warn("password update failed")
		return nil, err
	}
	return u, nil
}
