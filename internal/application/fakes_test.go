package application

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
)

type fakeAuthProvider struct {
	SignInWithPasswordFunc    func(ctx context.Context, email, password string) (*entity.Session, error)
	SignUpFunc                func(ctx context.Context, email, password string, opts provider.SignUpOptions) (*provider.SignUpResult, error)
	SignOutFunc               func(ctx context.Context) error
	ResetPasswordForEmailFunc func(ctx context.Context, email, redirectTo string) error
	ResendVerificationFunc    func(ctx context.Context, email, redirectTo string) error
	UpdateUserFunc            func(ctx context.Context, password string) (*entity.User, error)
	GetSessionFunc            func(ctx context.Context) (*entity.Session, error)
	GetUserFunc               func(ctx context.Context) (*entity.User, error)
	OnAuthStateChangeFunc     func(handler func(provider.AuthEvent)) provider.Unsubscribe
}

func (f *fakeAuthProvider) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	return f.SignInWithPasswordFunc(ctx, email, password)
}

func (f *fakeAuthProvider) SignUp(ctx context.Context, email, password string, opts provider.SignUpOptions) (*provider.SignUpResult, error) {
	return f.SignUpFunc(ctx, email, password, opts)
}

func (f *fakeAuthProvider) SignOut(ctx context.Context) error {
	if f.SignOutFunc == nil {
		return nil
	}
	return f.SignOutFunc(ctx)
}

func (f *fakeAuthProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return f.ResetPasswordForEmailFunc(ctx, email, redirectTo)
}

func (f *fakeAuthProvider) ResendVerification(ctx context.Context, email, redirectTo string) error {
	return f.ResendVerificationFunc(ctx, email, redirectTo)
}

func (f *fakeAuthProvider) UpdateUser(ctx context.Context, password string) (*entity.User, error) {
	return f.UpdateUserFunc(ctx, password)
}

func (f *fakeAuthProvider) GetSession(ctx context.Context) (*entity.Session, error) {
	if f.GetSessionFunc == nil {
		return nil, nil
	}
	return f.GetSessionFunc(ctx)
}

func (f *fakeAuthProvider) GetUser(ctx context.Context) (*entity.User, error) {
	if f.GetUserFunc == nil {
		return nil, provider.ErrNoSession
	}
	return f.GetUserFunc(ctx)
}

func (f *fakeAuthProvider) OnAuthStateChange(handler func(provider.AuthEvent)) provider.Unsubscribe {
	if f.OnAuthStateChangeFunc == nil {
		return func() {}
	}
	return f.OnAuthStateChangeFunc(handler)
}

type fakeProfileRepo struct {
	GetByIDFunc func(ctx context.Context, id string) (*entity.Profile, error)
	PatchFunc   func(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.Profile, error)
	LookupFunc  func(ctx context.Context, id string) (*entity.Profile, error)
	CreateFunc  func(ctx context.Context, p *entity.Profile) error
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeProfileRepo) Patch(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.Profile, error) {
	return f.PatchFunc(ctx, id, patch)
}

func (f *fakeProfileRepo) Lookup(ctx context.Context, id string) (*entity.Profile, error) {
	return f.LookupFunc(ctx, id)
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *entity.Profile) error {
	if f.CreateFunc == nil {
		return nil
	}
	return f.CreateFunc(ctx, p)
}

type fakeStorage struct {
	UploadFunc       func(ctx context.Context, path string, data []byte, opts provider.UploadOptions) error
	GetPublicURLFunc func(path string) string
	RemoveFunc       func(ctx context.Context, paths []string) error
}

func (f *fakeStorage) Upload(ctx context.Context, path string, data []byte, opts provider.UploadOptions) error {
	return f.UploadFunc(ctx, path, data, opts)
}

func (f *fakeStorage) GetPublicURL(path string) string {
	if f.GetPublicURLFunc == nil {
		return "https://storage.googleapis.com/profile_images/" + path
	}
	return f.GetPublicURLFunc(path)
}

func (f *fakeStorage) Remove(ctx context.Context, paths []string) error {
	if f.RemoveFunc == nil {
		return nil
	}
	return f.RemoveFunc(ctx, paths)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Env:          "production",
		AppScheme:    "eastgatechurchapp",
		DevServerURL: "exp://localhost:8081/--",
	}
}

func sessionFor(user *entity.User) *entity.Session {
	return &entity.Session{
		AccessToken:        "access",
		AccessTokenExpiry:  time.Now().Add(time.Hour),
		RefreshToken:       "refresh",
		RefreshTokenExpiry: time.Now().Add(24 * time.Hour),
		User:               user,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
