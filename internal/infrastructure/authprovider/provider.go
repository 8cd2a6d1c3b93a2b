// Package authprovider implements the backend auth client: password
// credentials against Postgres, JWT token pairs, session records in Redis,
// and verification/reset emails published to the mail queue. State changes
// are broadcast to auth-state-change subscribers in the order they are
// applied.
package authprovider

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/internal/domain/repository"
	"github.com/eastgatechurch/eastgate-app/pkg/helpers"
	"github.com/eastgatechurch/eastgate-app/pkg/mailer"
	tpl "github.com/eastgatechurch/eastgate-app/pkg/mailer/templates"
)

func sessionKey(userID string) string { return "user:session:" + userID }
func keyVerifyToken(t string) string  { return "email:verify:token:" + t }
func keyResetToken(t string) string   { return "pwd:reset:token:" + t }

type subscriber struct {
	id int
	fn func(provider.AuthEvent)
}

type Provider struct {
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	Pub      *helpers.RabbitPublisher
	Logger   *logrus.Logger
	Cfg      *config.Config

	mu      sync.Mutex
	current *entity.Session

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

func New(users repository.UserRepository, profiles repository.ProfileRepository, jwt *helpers.JWTManager, rdb *redis.Client, pub *helpers.RabbitPublisher, logger *logrus.Logger, cfg *config.Config) *Provider {
	return &Provider{
		Users:    users,
		Profiles: profiles,
		JWT:      jwt,
		Redis:    rdb,
		Pub:      pub,
		Logger:   logger,
		Cfg:      cfg,
	}
}

// OnAuthStateChange registers a handler for subsequent auth events.
// Handlers run synchronously in registration order; the returned
// Unsubscribe is idempotent.
func (p *Provider) OnAuthStateChange(handler func(provider.AuthEvent)) provider.Unsubscribe {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs = append(p.subs, subscriber{id: id, fn: handler})
	p.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			defer p.subMu.Unlock()
			for i, s := range p.subs {
				if s.id == id {
					p.subs = append(p.subs[:i], p.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (p *Provider) emit(ev provider.AuthEvent) {
	p.subMu.Lock()
	subs := make([]subscriber, len(p.subs))
	copy(subs, p.subs)
	p.subMu.Unlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	u, err := p.Users.GetByEmail(email)
	if err != nil || u == nil {
		return nil, provider.ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, provider.ErrInvalidCredentials
	}

	sess, err := p.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}

	p.setCurrent(sess)
	p.emit(provider.AuthEvent{Type: provider.SignedIn, Session: sess})
	return sess, nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string, opts provider.SignUpOptions) (*provider.SignUpResult, error) {
	if existing, err := p.Users.GetByEmail(email); err == nil && existing != nil {
		return nil, provider.ErrEmailTaken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Email: email, Password: hash}
	if err := p.Users.Create(u); err != nil {
		return nil, err
	}

	// Provision the 1:1 profile row alongside the identity record, the way
	// the hosted backend does with a server-side trigger.
	prof := &entity.Profile{ID: u.ID, Email: &u.Email}
	if fn, ok := opts.Metadata["first_name"]; ok && fn != "" {
		prof.FirstName = &fn
	}
	if ln, ok := opts.Metadata["last_name"]; ok && ln != "" {
		prof.LastName = &ln
	}
	if err := p.Profiles.Create(ctx, prof); err != nil {
		p.Logger.WithError(err).WithField("user_id", u.ID).Error("profile provisioning failed")
		return nil, err
	}

	if err := p.sendVerification(ctx, u, opts.EmailRedirectTo); err != nil {
		p.Logger.WithError(err).WithField("user_id", u.ID).Warn("verification email enqueue failed")
	}

	res := &provider.SignUpResult{User: u}
	if !p.Cfg.RequireEmailVerification {
		sess, err := p.issueSession(ctx, u)
		if err != nil {
			return nil, err
		}
		res.Session = sess
		p.setCurrent(sess)
		p.emit(provider.AuthEvent{Type: provider.SignedIn, Session: sess})
	}
	return res, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess := p.current
	p.current = nil
	p.mu.Unlock()

	if sess != nil && sess.User != nil && p.Redis != nil {
		if err := p.Redis.Del(ctx, sessionKey(sess.User.ID)).Err(); err != nil {
			p.emit(provider.AuthEvent{Type: provider.SignedOut})
			return err
		}
	}
	p.emit(provider.AuthEvent{Type: provider.SignedOut})
	return nil
}

func (p *Provider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	u, err := p.Users.GetByEmail(email)
	if err != nil || u == nil {
		// Do not reveal whether the address is registered.
		return nil
	}
	tok, err := genToken(32)
	if err != nil {
		return err
	}
	if p.Redis != nil {
		if err := p.Redis.Set(ctx, keyResetToken(tok), u.ID, time.Hour).Err(); err != nil {
			return err
		}
	}
	return p.enqueueEmail(ctx, u, tpl.ResetPassword, redirectTo+"?token="+tok, time.Hour)
}

func (p *Provider) ResendVerification(ctx context.Context, email, redirectTo string) error {
	u, err := p.Users.GetByEmail(email)
	if err != nil || u == nil {
		return provider.ErrUserNotFound
	}
	if u.IsEmailVerified() {
		return nil
	}
	return p.sendVerification(ctx, u, redirectTo)
}

// UpdateUser changes the password of the currently signed-in user.
func (p *Provider) UpdateUser(ctx context.Context, password string) (*entity.User, error) {
	sess := p.snapshot()
	if sess == nil || sess.User == nil {
		return nil, provider.ErrNoSession
	}
	return p.UpdateUserPassword(ctx, sess.User.ID, password)
}

// UpdateUserPassword installs a new password for an explicit user id,
// authenticated by the caller. When the ambient session belongs to that
// user it is swapped for a fresh value, never mutated in place.
func (p *Provider) UpdateUserPassword(ctx context.Context, userID, password string) (*entity.User, error) {
	u, err := p.Users.GetByID(userID)
	if err != nil || u == nil {
		return nil, provider.ErrUserNotFound
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = hash
	if err := p.Users.Update(u); err != nil {
		return nil, err
	}

	if sess := p.swapCurrentUser(u); sess != nil {
		p.emit(provider.AuthEvent{Type: provider.UserUpdated, Session: sess})
	}
	return u, nil
}

// SignOutUser destroys the server-side session record for an explicit user
// id and clears the ambient session only when it belongs to that user.
func (p *Provider) SignOutUser(ctx context.Context, userID string) error {
	p.mu.Lock()
	cleared := p.current != nil && p.current.User != nil && p.current.User.ID == userID
	if cleared {
		p.current = nil
	}
	p.mu.Unlock()

	var err error
	if p.Redis != nil {
		err = p.Redis.Del(ctx, sessionKey(userID)).Err()
	}
	if cleared {
		p.emit(provider.AuthEvent{Type: provider.SignedOut})
	}
	return err
}

// GetSession returns the current session, rotating the token pair first
// when the access token has expired but the refresh token is still good.
func (p *Provider) GetSession(ctx context.Context) (*entity.Session, error) {
	sess := p.snapshot()
	if sess == nil {
		return nil, nil
	}
	if time.Now().Before(sess.AccessTokenExpiry) {
		return sess, nil
	}
	if time.Now().After(sess.RefreshTokenExpiry) {
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
		p.emit(provider.AuthEvent{Type: provider.SignedOut})
		return nil, nil
	}
	rotated, err := p.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		return nil, err
	}
	return rotated, nil
}

func (p *Provider) GetUser(ctx context.Context) (*entity.User, error) {
	sess := p.snapshot()
	if sess == nil || sess.User == nil {
		return nil, nil
	}
	u, err := p.Users.GetByID(sess.User.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RefreshSession validates a refresh token against the recorded session and
// rotates both tokens and the session id.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*entity.Session, error) {
	claims, err := p.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, provider.ErrInvalidCredentials
	}
	u, err := p.Users.GetByID(claims.UserID)
	if err != nil || u == nil {
		return nil, provider.ErrInvalidCredentials
	}
	if p.Redis != nil {
		data, rErr := p.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return nil, provider.ErrInvalidCredentials
		}
	}
	sess, err := p.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	p.setCurrent(sess)
	p.emit(provider.AuthEvent{Type: provider.TokenRefreshed, Session: sess})
	return sess, nil
}

// ConfirmVerification redeems a verification token and marks the user's
// email as confirmed.
func (p *Provider) ConfirmVerification(ctx context.Context, token string) error {
	uid, err := p.redeemToken(ctx, keyVerifyToken(token))
	if err != nil {
		return err
	}
	if err := p.Users.SetVerified(uid); err != nil {
		return err
	}

	u, err := p.Users.GetByID(uid)
	if err != nil || u == nil {
		return provider.ErrUserNotFound
	}
	if sess := p.swapCurrentUser(u); sess != nil {
		p.emit(provider.AuthEvent{Type: provider.UserUpdated, Session: sess})
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token and installs the new password.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	uid, err := p.redeemToken(ctx, keyResetToken(token))
	if err != nil {
		return err
	}
	u, err := p.Users.GetByID(uid)
	if err != nil || u == nil {
		return provider.ErrUserNotFound
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	return p.Users.Update(u)
}

func (p *Provider) redeemToken(ctx context.Context, key string) (string, error) {
	if p.Redis == nil {
		return "", provider.ErrInvalidToken
	}
	uid, err := p.Redis.Get(ctx, key).Result()
	if err != nil || uid == "" {
		return "", provider.ErrInvalidToken
	}
	p.Redis.Del(ctx, key)
	return uid, nil
}

func (p *Provider) issueSession(ctx context.Context, u *entity.User) (*entity.Session, error) {
	sid := uuid.NewString()
	access, aexp, err := p.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		p.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return nil, err
	}
	refresh, rexp, err := p.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		p.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return nil, err
	}

	if p.Redis != nil {
		key := sessionKey(u.ID)
		pipe := p.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"sid":        sid,
			"logged_in":  true,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, p.Cfg.SessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			p.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return &entity.Session{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
		User:               u,
	}, nil
}

func (p *Provider) sendVerification(ctx context.Context, u *entity.User, redirectTo string) error {
	tok, err := genToken(32)
	if err != nil {
		return err
	}
	if p.Redis != nil {
		if err := p.Redis.Set(ctx, keyVerifyToken(tok), u.ID, 24*time.Hour).Err(); err != nil {
			return err
		}
	}
	return p.enqueueEmail(ctx, u, tpl.VerifyEmail, redirectTo+"?token="+tok, 24*time.Hour)
}

func (p *Provider) enqueueEmail(ctx context.Context, u *entity.User, template, actionURL string, ttl time.Duration) error {
	if p.Pub == nil || !p.Cfg.MailSendEnabled {
		return nil
	}
	name := u.Email
	if prof, err := p.Profiles.GetByID(ctx, u.ID); err == nil && prof != nil && prof.FirstName != nil {
		name = *prof.FirstName
	}
	data := tpl.ToMap(tpl.EmailData{
		Name:      name,
		Email:     u.Email,
		AppName:   p.Cfg.AppName,
		ActionURL: actionURL,
		ExpiresAt: time.Now().Add(ttl),
	})
	return p.Pub.PublishJSON(ctx, mailer.EmailJob{To: u.Email, Template: template, Data: data})
}

func (p *Provider) setCurrent(sess *entity.Session) {
	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()
}

func (p *Provider) snapshot() *entity.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// swapCurrentUser replaces the ambient session with a fresh value carrying
// the given user, provided the session belongs to that user. Sessions handed
// out by snapshot stay immutable, so the copy is mandatory. Returns the new
// session, or nil when no swap happened.
func (p *Provider) swapCurrentUser(u *entity.User) *entity.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.User == nil || p.current.User.ID != u.ID {
		return nil
	}
	next := *p.current
	next.User = u
	p.current = &next
	return p.current
}

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var _ provider.AuthProvider = (*Provider)(nil)
