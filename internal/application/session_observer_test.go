package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eastgatechurch/eastgate-app/internal/domain/entity"
	"github.com/eastgatechurch/eastgate-app/internal/domain/provider"
)

func verifiedUser(id string) *entity.User {
	now := time.Now()
	return &entity.User{ID: id, Email: id + "@b.co", EmailConfirmedAt: &now}
}

func TestObserverResolvesInitialSession(t *testing.T) {
	user := verifiedUser("u1")
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) {
			return sessionFor(user), nil
		},
		GetUserFunc: func(ctx context.Context) (*entity.User, error) {
			return user, nil
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	defer o.Close()

	waitFor(t, func() bool { return !o.Snapshot().Loading })

	st := o.Snapshot()
	if !st.IsAuthenticated {
		t.Error("expected authenticated state")
	}
	if st.User == nil || st.User.ID != "u1" {
		t.Errorf("user = %+v", st.User)
	}
	waitFor(t, func() bool {
		v := o.Snapshot().IsEmailVerified
		return v != nil && *v
	})
}

func TestObserverStartsLoadingAndSettlesUnauthenticated(t *testing.T) {
	release := make(chan struct{})
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) {
			<-release
			return nil, nil
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	defer o.Close()

	if st := o.Snapshot(); !st.Loading || st.IsAuthenticated {
		t.Errorf("initial state = %+v", st)
	}
	close(release)

	waitFor(t, func() bool { return !o.Snapshot().Loading })
	st := o.Snapshot()
	if st.IsAuthenticated || st.User != nil || st.IsEmailVerified != nil {
		t.Errorf("settled state = %+v", st)
	}
}

func TestObserverAppliesEventsInOrder(t *testing.T) {
	var handler func(provider.AuthEvent)
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) { return nil, nil },
		GetUserFunc: func(ctx context.Context) (*entity.User, error) {
			return verifiedUser("u1"), nil
		},
		OnAuthStateChangeFunc: func(h func(provider.AuthEvent)) provider.Unsubscribe {
			handler = h
			return func() {}
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	defer o.Close()
	waitFor(t, func() bool { return !o.Snapshot().Loading })

	handler(provider.AuthEvent{Type: provider.SignedIn, Session: sessionFor(verifiedUser("u1"))})
	if st := o.Snapshot(); !st.IsAuthenticated {
		t.Error("expected authenticated after SIGNED_IN")
	}

	handler(provider.AuthEvent{Type: provider.SignedOut})
	if st := o.Snapshot(); st.IsAuthenticated || st.User != nil {
		t.Errorf("state after SIGNED_OUT = %+v", st)
	}
}

func TestObserverSignOutClearsStateEvenWhenBackendFails(t *testing.T) {
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) {
			return sessionFor(verifiedUser("u1")), nil
		},
		GetUserFunc: func(ctx context.Context) (*entity.User, error) {
			return verifiedUser("u1"), nil
		},
		SignOutFunc: func(ctx context.Context) error {
			return errors.New("backend unavailable")
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	defer o.Close()
	waitFor(t, func() bool { return o.Snapshot().IsAuthenticated })

	o.SignOut(context.Background())

	st := o.Snapshot()
	if st.IsAuthenticated || st.Session != nil || st.User != nil || st.Loading {
		t.Errorf("state after sign out = %+v", st)
	}
}

func TestObserverStaleVerificationCheckIsDropped(t *testing.T) {
	unverified := &entity.User{ID: "u1", Email: "u1@b.co"}
	block := make(chan struct{})
	var handler func(provider.AuthEvent)
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) { return nil, nil },
		GetUserFunc: func(ctx context.Context) (*entity.User, error) {
			<-block
			return verifiedUser("u1"), nil
		},
		OnAuthStateChangeFunc: func(h func(provider.AuthEvent)) provider.Unsubscribe {
			handler = h
			return func() {}
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	defer o.Close()
	waitFor(t, func() bool { return !o.Snapshot().Loading })

	// First transition spawns a check that stalls; the sign-out that
	// follows must win.
	handler(provider.AuthEvent{Type: provider.SignedIn, Session: sessionFor(unverified)})
	handler(provider.AuthEvent{Type: provider.SignedOut})
	close(block)

	time.Sleep(50 * time.Millisecond)
	st := o.Snapshot()
	if st.IsAuthenticated || st.IsEmailVerified != nil {
		t.Errorf("stale check leaked into state: %+v", st)
	}
}

func TestObserverResendVerificationEmail(t *testing.T) {
	var gotEmail, gotRedirect string
	calls := 0
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) { return nil, nil },
		ResendVerificationFunc: func(ctx context.Context, email, redirectTo string) error {
			calls++
			gotEmail, gotRedirect = email, redirectTo
			return nil
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	defer o.Close()

	if ok := o.ResendVerificationEmail(context.Background(), "bad-email"); ok {
		t.Error("malformed email should report failure")
	}
	if calls != 0 {
		t.Error("provider reached with malformed email")
	}

	if ok := o.ResendVerificationEmail(context.Background(), "a@b.co"); !ok {
		t.Error("expected success")
	}
	if gotEmail != "a@b.co" || gotRedirect != "eastgatechurchapp://login" {
		t.Errorf("got email=%q redirect=%q", gotEmail, gotRedirect)
	}
}

func TestObserverCloseStopsEvents(t *testing.T) {
	var handler func(provider.AuthEvent)
	unsubbed := false
	p := &fakeAuthProvider{
		GetSessionFunc: func(ctx context.Context) (*entity.Session, error) { return nil, nil },
		OnAuthStateChangeFunc: func(h func(provider.AuthEvent)) provider.Unsubscribe {
			handler = h
			return func() { unsubbed = true }
		},
	}
	o := NewSessionObserver(p, testLogger(), testConfig())
	waitFor(t, func() bool { return !o.Snapshot().Loading })

	o.Close()
	if !unsubbed {
		t.Error("Close did not release the subscription")
	}

	// A handler still held by a racing emitter must not mutate state.
	handler(provider.AuthEvent{Type: provider.SignedIn, Session: sessionFor(verifiedUser("u1"))})
	if o.Snapshot().IsAuthenticated {
		t.Error("event applied after Close")
	}
}
