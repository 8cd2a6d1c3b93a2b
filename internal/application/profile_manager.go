package application

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
)

// ProfileManager keeps the single in-memory Profile for the current user.
// The cache is a read-through projection: it is refreshed from the service
// after every successful mutation and never treated as authoritative
// between round-trips. Close stops state writes from in-flight fetches.
type ProfileManager struct {
	svc    *ProfileService
	logger *logrus.Logger

	mu      sync.Mutex
	profile *entity.Profile
	loading bool
	lastErr error
	gen     uint64
	closed  bool
	unsub   provider.Unsubscribe
}

func NewProfileManager(svc *ProfileService, logger *logrus.Logger) *ProfileManager {
	return &ProfileManager{svc: svc, logger: logger}
}

// Bind subscribes the cache to auth-state changes so it tracks the
// observed user: refreshed on sign-in, token refresh and user updates,
// cleared on sign-out. Close releases the subscription.
func (m *ProfileManager) Bind(p provider.AuthProvider) {
	m.unsub = p.OnAuthStateChange(func(ev provider.AuthEvent) {
		if ev.Type == provider.SignedOut {
			m.Clear()
			return
		}
		go m.Refresh(context.Background())
	})
}

// Profile returns the cached profile, which may be nil before the first
// successful Refresh or after sign-out.
func (m *ProfileManager) Profile() *entity.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

func (m *ProfileManager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *ProfileManager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Refresh re-fetches the current user's profile. A fetch that resolves
// after Close, or after a newer Refresh started, is dropped.
func (m *ProfileManager) Refresh(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.loading = true
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	p, err := m.svc.GetCurrentProfile(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.gen != gen {
		return
	}
	m.loading = false
	if err != nil {
		m.logger.WithError(err).Error("profile refresh failed")
		m.lastErr = err
		return
	}
	m.profile = p
	m.lastErr = nil
}

// Update applies a partial patch and installs the returned row in the
// cache. The loading flag clears on every path.
func (m *ProfileManager) Update(ctx context.Context, patch entity.ProfilePatch) (*entity.Profile, error) {
	m.mu.Lock()
	m.loading = true
	m.mu.Unlock()
	defer m.clearLoading()

	p, err := m.svc.UpdateProfile(ctx, patch)
	if err != nil {
		m.setErr(err)
		return nil, err
	}

	m.mu.Lock()
	if !m.closed {
		m.profile = p
		m.lastErr = nil
	}
	m.mu.Unlock()
	return p, nil
}

// SetAvatarURL updates only the cached avatar_url, optimistically, after
// the avatar pipeline has committed the remote value. nil clears it. The
// write applies only when the cache currently holds that user's profile.
func (m *ProfileManager) SetAvatarURL(userID string, url *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.profile == nil || m.profile.ID != userID {
		return
	}
	m.profile.AvatarURL = url
}

// Clear drops the cached profile, used on sign-out.
func (m *ProfileManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profile = nil
	m.lastErr = nil
	m.loading = false
}

func (m *ProfileManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *ProfileManager) clearLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
}

func (m *ProfileManager) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.lastErr = err
	}
}
