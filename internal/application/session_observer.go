package application

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/pkg/validation"
)

// AuthState is the observer's reactive snapshot. IsEmailVerified is nil
// while there is no user or while the verification check is in flight.
type AuthState struct {
	Session         *entity.Session
	User            *entity.User
	Loading         bool
	IsAuthenticated bool
	IsEmailVerified *bool
}

// SessionObserver mirrors the backend client's auth state. It takes one
// initial session snapshot, then applies auth-state-change events in
// arrival order with last-write-wins semantics. Close releases the
// subscription; a closed observer ignores late async results.
type SessionObserver struct {
	provider provider.AuthProvider
	logger   *logrus.Logger
	cfg      *config.Config

	mu     sync.Mutex
	state  AuthState
	gen    uint64
	closed bool
	unsub  provider.Unsubscribe
}

func NewSessionObserver(p provider.AuthProvider, logger *logrus.Logger, cfg *config.Config) *SessionObserver {
	o := &SessionObserver{provider: p, logger: logger, cfg: cfg}
	o.state.Loading = true
	o.unsub = p.OnAuthStateChange(o.handleEvent)

	go func() {
		sess, err := p.GetSession(context.Background())
		if err != nil {
			logger.WithError(err).Warn("initial session fetch failed")
		}
		o.apply(sess, true)
	}()
	return o
}

// Snapshot returns a copy of the current auth state.
func (o *SessionObserver) Snapshot() AuthState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *SessionObserver) IsAuthenticated() bool {
	return o.Snapshot().IsAuthenticated
}

// SignOut delegates to the backend and clears local state either way.
// Backend failures are logged, not returned; callers treat sign-out as
// always succeeding locally.
func (o *SessionObserver) SignOut(ctx context.Context) {
	o.mu.Lock()
	o.state.Loading = true
	o.mu.Unlock()

	if err := o.provider.SignOut(ctx); err != nil {
		o.logger.WithError(err).Error("sign out failed")
	}
	o.apply(nil, true)
}

// ResendVerificationEmail validates the address and asks the backend to
// re-send the verification email. It reports success as a boolean and
// never propagates the underlying error.
func (o *SessionObserver) ResendVerificationEmail(ctx context.Context, email string) bool {
	if res := validation.ValidateEmail(email); !res.Valid {
		return false
	}
	if err := o.provider.ResendVerification(ctx, email, o.cfg.LoginRedirectURL()); err != nil {
		o.logger.WithError(err).WithField("email", email).Warn("resend verification failed")
		return false
	}
	return true
}

// Close unsubscribes from auth-state-change events. Further events and
// in-flight verification checks are dropped.
func (o *SessionObserver) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	if o.unsub != nil {
		o.unsub()
	}
}

func (o *SessionObserver) handleEvent(ev provider.AuthEvent) {
	o.apply(ev.Session, true)
}

func (o *SessionObserver) apply(sess *entity.Session, clearLoading bool) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.gen++
	gen := o.gen

	o.state.Session = sess
	if sess != nil {
		o.state.User = sess.User
	} else {
		o.state.User = nil
	}
	o.state.IsAuthenticated = sess != nil
	if clearLoading {
		o.state.Loading = false
	}

	if o.state.User == nil {
		o.state.IsEmailVerified = nil
		o.mu.Unlock()
		return
	}
	// Best-effort value from the event payload; the authoritative check
	// runs against the provider below.
	verified := o.state.User.IsEmailVerified()
	o.state.IsEmailVerified = &verified
	o.mu.Unlock()

	go o.checkVerification(gen)
}

// checkVerification re-derives IsEmailVerified from a fresh user fetch.
// A stale generation means a newer transition won; the result is dropped.
func (o *SessionObserver) checkVerification(gen uint64) {
	u, err := o.provider.GetUser(context.Background())
	if err != nil {
		o.logger.WithError(err).Warn("verification check failed")
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.gen != gen || o.state.User == nil {
		return
	}
	verified := u.IsEmailVerified()
	o.state.IsEmailVerified = &verified
}
