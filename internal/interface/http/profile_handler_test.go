package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/internal/application"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/internal/interface/middleware"
)

// stubBackend has another user's session ambient, the way a second signed-in
// client leaves the provider. Handlers must never read identity from it.
type stubBackend struct {
	sessionUser *entity.User
}

func (s *stubBackend) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	return nil, provider.ErrInvalidCredentials
}

func (s *stubBackend) SignUp(ctx context.Context, email, password string, opts provider.SignUpOptions) (*provider.SignUpResult, error) {
	return nil, provider.ErrEmailTaken
}

func (s *stubBackend) SignOut(ctx context.Context) error { return nil }

func (s *stubBackend) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (s *stubBackend) ResendVerification(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (s *stubBackend) UpdateUser(ctx context.Context, password string) (*entity.User, error) {
	return nil, provider.ErrNoSession
}

func (s *stubBackend) GetSession(ctx context.Context) (*entity.Session, error) {
	if s.sessionUser == nil {
		return nil, nil
	}
	return &entity.Session{
		AccessToken:        "access",
		AccessTokenExpiry:  time.Now().Add(time.Hour),
		RefreshToken:       "refresh",
		RefreshTokenExpiry: time.Now().Add(24 * time.Hour),
		User:               s.sessionUser,
	}, nil
}

func (s *stubBackend) GetUser(ctx context.Context) (*entity.User, error) {
	return s.sessionUser, nil
}

func (s *stubBackend) OnAuthStateChange(handler func(provider.AuthEvent)) provider.Unsubscribe {
	return func() {}
}

type stubProfileRepo struct {
	patchedID string
}

func (r *stubProfileRepo) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	name := "owner-of-" + id
	return &entity.Profile{ID: id, FirstName: &name}, nil
}

func (r *stubProfileRepo) Patch(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.Profile, error) {
	r.patchedID = id
	return &entity.Profile{ID: id, Bio: patch.Bio}, nil
}

func (r *stubProfileRepo) Lookup(ctx context.Context, id string) (*entity.Profile, error) {
	return &entity.Profile{ID: id}, nil
}

func (r *stubProfileRepo) Create(ctx context.Context, p *entity.Profile) error { return nil }

func profileHandlerFixture(t *testing.T) (*ProfileHandler, *stubProfileRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	backend := &stubBackend{sessionUser: &entity.User{ID: "user-b", Email: "b@church.org"}}
	repo := &stubProfileRepo{}
	svc := application.NewProfileService(backend, repo, logger, nil, "")
	return NewProfileHandler(svc, nil, logger), repo
}

func authedContext(t *testing.T, userID, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	} else {
		rdr = bytes.NewBuffer(nil)
	}
	c.Request = httptest.NewRequest(method, "/api/profile", rdr)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		c.Set(middleware.CtxUserIDKey, userID)
	}
	return c, rec
}

func TestProfileGetServesRequestUser(t *testing.T) {
	h, _ := profileHandlerFixture(t)

	// Token belongs to user-a while user-b's session is ambient.
	c, rec := authedContext(t, "user-a", http.MethodGet, "")
	h.Get(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data entity.Profile `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.ID != "user-a" {
		t.Errorf("served profile id = %q", envelope.Data.ID)
	}
	if strings.Contains(rec.Body.String(), "user-b") {
		t.Error("response leaked another user's profile")
	}
}

func TestProfileGetWithoutTokenIdentity(t *testing.T) {
	h, _ := profileHandlerFixture(t)

	c, rec := authedContext(t, "", http.MethodGet, "")
	h.Get(c)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestProfileUpdatePatchesRequestUser(t *testing.T) {
	h, repo := profileHandlerFixture(t)

	c, rec := authedContext(t, "user-a", http.MethodPut, `{"bio":"hello"}`)
	h.Update(c)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if repo.patchedID != "user-a" {
		t.Errorf("patched row id = %q", repo.patchedID)
	}
}
