package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkable-app/thinkable-go/internal/db"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*db.Session
	// getDelay stalls lookups, to exercise the resolve deadline.
	getDelay time.Duration
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]*db.Session)}
}

func (s *memStore) QueryCreateSession(ctx context.Context, id, owner string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &db.Session{ID: id, Owner: owner, ExpiresAt: expiresAt}
	return nil
}

func (s *memStore) QueryGetSession(ctx context.Context, id string) (*db.Session, error) {
	if s.getDelay > 0 {
		select {
		case <-time.After(s.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) QueryDeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memStore) QueryDeleteSessionsForOwner(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.Owner == owner {
			delete(s.sessions, id)
		}
	}
	return nil
}

func newTestAuth(t *testing.T, store SessionStore) *Authenticator {
	t.Helper()
	a, err := New("test-secret", store, nil)
	require.NoError(t, err)
	return a
}

func TestSignInResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAuth(t, store)

	token, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	owner, err := a.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
}

func TestResolveRejectsTamperedTokens(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAuth(t, store)

	token, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)

	id, sig, _ := strings.Cut(token, ".")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no separator", id + sig},
		{"flipped signature", id + "." + sig[:len(sig)-1] + "g"},
		{"other session id", "other." + sig},
		{"missing id", "." + sig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Resolve(ctx, tt.token)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestResolveRejectsForeignSecret(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAuth(t, store)
	token, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)

	other, err := New("different-secret", store, nil)
	require.NoError(t, err)
	_, err = other.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAuth(t, store)

	token, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, a.SignOut(ctx, token))

	_, err = a.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveExpiredSessionReaps(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAuth(t, store)
	a.ttl = -time.Minute

	token, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)

	_, err = a.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	store.mu.Lock()
	remaining := len(store.sessions)
	store.mu.Unlock()
	assert.Zero(t, remaining, "expired session must be reaped")
}

func TestResolveTimeoutIsUnauthenticated(t *testing.T) {
	store := newMemStore()
	a := newTestAuth(t, store)

	token, err := a.SignIn(context.Background(), "u1")
	require.NoError(t, err)

	store.getDelay = time.Minute

	// Shorter outer deadline stands in for ResolveTimeout so the test
	// does not wait five seconds.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = a.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSignOutIsBestEffort(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t, newMemStore())

	assert.NoError(t, a.SignOut(ctx, "garbage-token"))
	assert.NoError(t, a.SignOut(ctx, ""))

	token, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)
	assert.NoError(t, a.SignOut(ctx, token))
	assert.NoError(t, a.SignOut(ctx, token), "double sign-out is fine")
}

func TestSignOutEverywhere(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a := newTestAuth(t, store)

	t1, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)
	t2, err := a.SignIn(ctx, "u1")
	require.NoError(t, err)
	other, err := a.SignIn(ctx, "u2")
	require.NoError(t, err)

	require.NoError(t, a.SignOutEverywhere(ctx, "u1"))

	_, err = a.Resolve(ctx, t1)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = a.Resolve(ctx, t2)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	owner, err := a.Resolve(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "u2", owner)
}

func TestOwnerContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, OwnerFromContext(ctx))
	assert.Equal(t, "u1", OwnerFromContext(WithOwner(ctx, "u1")))
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("", newMemStore(), nil)
	assert.Error(t, err)
}
