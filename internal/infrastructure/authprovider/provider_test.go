package authprovider

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eastgatechurch/eastgate-app/config"
	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
	"github.com/eastgatechurch/eastgate-app/pkg/helpers"
)

// memUsers keeps identity records in memory. Reads hand out copies the way
// a database scan does, so callers never share rows with the store.
type memUsers struct {
	byID map[string]*entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*entity.User{}}
}

func (m *memUsers) clone(u *entity.User) *entity.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func (m *memUsers) Create(u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.byID[u.ID] = m.clone(u)
	return nil
}

func (m *memUsers) GetByID(id string) (*entity.User, error) {
	return m.clone(m.byID[id]), nil
}

func (m *memUsers) GetByEmail(email string) (*entity.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return m.clone(u), nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(u *entity.User) error {
	m.byID[u.ID] = m.clone(u)
	return nil
}

func (m *memUsers) SetVerified(id string) error {
	if u, ok := m.byID[id]; ok {
		now := time.Now()
		u.EmailConfirmedAt = &now
	}
	return nil
}

type memProfiles struct{}

func (memProfiles) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	return nil, nil
}

func (memProfiles) Patch(ctx context.Context, id string, patch entity.ProfilePatch) (*entity.Profile, error) {
	return &entity.Profile{ID: id}, nil
}

func (memProfiles) Lookup(ctx context.Context, id string) (*entity.Profile, error) {
	return nil, nil
}

func (memProfiles) Create(ctx context.Context, p *entity.Profile) error { return nil }

func providerFixture(t *testing.T) (*Provider, *memUsers) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	cfg := &config.Config{SessionTTL: time.Hour}
	users := newMemUsers()
	return New(users, memProfiles{}, jwt, nil, nil, logger, cfg), users
}

func seedUser(t *testing.T, users *memUsers, id, email, password string) {
	t.Helper()
	hash, err := helpers.HashPassword(password)
	if err != nil {
		t.Fatalf("hash fixture password: %v", err)
	}
	users.byID[id] = &entity.User{ID: id, Email: email, Password: hash}
}

func TestUpdateUserPasswordKeepsSnapshotsImmutable(t *testing.T) {
	p, users := providerFixture(t)
	seedUser(t, users, "a1", "alice@church.org", "OldPassw0rd!")
	ctx := context.Background()

	if _, err := p.SignInWithPassword(ctx, "alice@church.org", "OldPassw0rd!"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	before, err := p.GetSession(ctx)
	if err != nil || before == nil {
		t.Fatalf("session before update: %v", err)
	}
	beforeUser := before.User
	beforeHash := beforeUser.Password

	if _, err := p.UpdateUserPassword(ctx, "a1", "NewPassw0rd!"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	// The session handed out earlier must be untouched: concurrent readers
	// may still hold it.
	if before.User != beforeUser || before.User.Password != beforeHash {
		t.Error("previously returned session was mutated in place")
	}

	after, err := p.GetSession(ctx)
	if err != nil || after == nil {
		t.Fatalf("session after update: %v", err)
	}
	if after == before {
		t.Error("update did not install a fresh session value")
	}
	if after.User.Password == beforeHash {
		t.Error("new session still carries the old password hash")
	}
	if !helpers.CompareHashAndPassword(after.User.Password, "NewPassw0rd!") {
		t.Error("new session hash does not match the new password")
	}
}

func TestUpdateUserPasswordTargetsExplicitUser(t *testing.T) {
	p, users := providerFixture(t)
	seedUser(t, users, "a1", "alice@church.org", "AlicePass1!")
	seedUser(t, users, "b1", "bob@church.org", "BobPass1!")
	ctx := context.Background()

	// Bob signed in last, so his session is the ambient one.
	if _, err := p.SignInWithPassword(ctx, "bob@church.org", "BobPass1!"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	// A request authenticated as Alice changes Alice's password, not Bob's.
	if _, err := p.UpdateUserPassword(ctx, "a1", "AliceNext1!"); err != nil {
		t.Fatalf("update password: %v", err)
	}

	alice, _ := users.GetByID("a1")
	if !helpers.CompareHashAndPassword(alice.Password, "AliceNext1!") {
		t.Error("alice's stored hash was not updated")
	}
	bob, _ := users.GetByID("b1")
	if !helpers.CompareHashAndPassword(bob.Password, "BobPass1!") {
		t.Error("bob's stored hash changed")
	}

	sess, err := p.GetSession(ctx)
	if err != nil || sess == nil || sess.User.ID != "b1" {
		t.Fatalf("ambient session = %+v, err %v", sess, err)
	}
	if !helpers.CompareHashAndPassword(sess.User.Password, "BobPass1!") {
		t.Error("ambient session user was rewritten by another user's update")
	}
}

func TestSignOutUserClearsOnlyMatchingSession(t *testing.T) {
	p, users := providerFixture(t)
	seedUser(t, users, "a1", "alice@church.org", "AlicePass1!")
	ctx := context.Background()

	if _, err := p.SignInWithPassword(ctx, "alice@church.org", "AlicePass1!"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	var events []provider.AuthEventType
	unsub := p.OnAuthStateChange(func(ev provider.AuthEvent) {
		events = append(events, ev.Type)
	})
	defer unsub()

	// Signing out a different user leaves the ambient session alone.
	if err := p.SignOutUser(ctx, "b1"); err != nil {
		t.Fatalf("sign out other: %v", err)
	}
	if sess, _ := p.GetSession(ctx); sess == nil {
		t.Fatal("ambient session was cleared by another user's sign-out")
	}
	if len(events) != 0 {
		t.Fatalf("unexpected events: %v", events)
	}

	if err := p.SignOutUser(ctx, "a1"); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if sess, _ := p.GetSession(ctx); sess != nil {
		t.Error("ambient session survived its owner's sign-out")
	}
	if len(events) != 1 || events[0] != provider.SignedOut {
		t.Errorf("events = %v", events)
	}
}
