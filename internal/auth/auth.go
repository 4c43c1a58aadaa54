// Package auth implements signed session tokens and identity resolution.
// A token is a session id plus an HMAC-SHA256 signature over it; the
// session row itself carries the owner and the expiry, so revocation is a
// row delete and sign-out works from any device.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thinkable-app/thinkable-go/internal/db"
)

// ResolveTimeout bounds identity resolution. A lookup that cannot complete
// within it is treated as unauthenticated rather than blocking the page.
const ResolveTimeout = 5 * time.Second

// DefaultSessionTTL is how long a minted session stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrUnauthenticated is returned for any token that does not resolve to a
// live session: malformed, bad signature, unknown, or expired.
var ErrUnauthenticated = errors.New("unauthenticated")

// SessionStore is the session persistence the authenticator needs.
// *db.Client satisfies it.
type SessionStore interface {
	QueryCreateSession(ctx context.Context, id, owner string, expiresAt time.Time) error
	QueryGetSession(ctx context.Context, id string) (*db.Session, error)
	QueryDeleteSession(ctx context.Context, id string) error
	QueryDeleteSessionsForOwner(ctx context.Context, owner string) error
}

// Authenticator mints and resolves session tokens.
type Authenticator struct {
	secret []byte
	store  SessionStore
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// New creates an authenticator. logger may be nil.
func New(secret string, store SessionStore, logger *slog.Logger) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		secret: []byte(secret),
		store:  store,
		logger: logger,
		ttl:    DefaultSessionTTL,
		now:    time.Now,
	}, nil
}

// SignIn creates a session for owner and returns its signed token.
func (a *Authenticator) SignIn(ctx context.Context, owner string) (string, error) {
	if owner == "" {
		return "", errors.New("auth: owner must not be empty")
	}
	id := uuid.NewString()
	expires := a.now().Add(a.ttl)
	if err := a.store.QueryCreateSession(ctx, id, owner, expires); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return a.mint(id), nil
}

// Resolve returns the owner behind a token. The lookup is bounded by
// ResolveTimeout; on timeout, or for any invalid or expired token, it
// returns ErrUnauthenticated.
func (a *Authenticator) Resolve(ctx context.Context, token string) (string, error) {
	id, ok := a.verify(token)
	if !ok {
		return "", ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, ResolveTimeout)
	defer cancel()

	sess, err := a.store.QueryGetSession(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			a.logger.Warn("auth resolve timed out, treating as unauthenticated", "session", id)
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("resolve session: %w", err)
	}

	if !sess.ExpiresAt.IsZero() && a.now().After(sess.ExpiresAt) {
		// Expired rows are garbage; reap opportunistically.
		if err := a.store.QueryDeleteSession(context.WithoutCancel(ctx), id); err != nil {
			a.logger.Warn("failed to reap expired session", "session", id, "error", err)
		}
		return "", ErrUnauthenticated
	}
	return sess.Owner, nil
}

// SignOut deletes the token's session. Best effort: an invalid token or a
// missing row is not an error.
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	id, ok := a.verify(token)
	if !ok {
		return nil
	}
	if err := a.store.QueryDeleteSession(ctx, id); err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// SignOutEverywhere deletes every session of an owner.
func (a *Authenticator) SignOutEverywhere(ctx context.Context, owner string) error {
	if err := a.store.QueryDeleteSessionsForOwner(ctx, owner); err != nil {
		return fmt.Errorf("sign out everywhere: %w", err)
	}
	return nil
}

func (a *Authenticator) mint(sessionID string) string {
	return sessionID + "." + a.sign(sessionID)
}

// verify checks the token's signature and returns the session id.
func (a *Authenticator) verify(token string) (string, bool) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(a.sign(id)), []byte(sig)) {
		return "", false
	}
	return id, true
}

func (a *Authenticator) sign(sessionID string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

type ctxOwnerKey struct{}

// WithOwner returns a context carrying the resolved owner id.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ctxOwnerKey{}, owner)
}

// OwnerFromContext returns the resolved owner id, or empty when the
// request is unauthenticated.
func OwnerFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxOwnerKey{}).(string); ok {
		return s
	}
	return ""
}
