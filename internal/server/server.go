// Package server exposes the HTTP API: the public homepage board, account
// deletion, and the WebSocket push channel browsers subscribe to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thinkable-app/thinkable-go/internal/auth"
	"github.com/thinkable-app/thinkable-go/internal/db"
)

// BoardAdmin is the elevated data access the public endpoints need.
// *db.Admin satisfies it.
type BoardAdmin interface {
	GetBoardBundle(ctx context.Context, convID string) (*db.BoardBundle, error)
	DeleteOwner(ctx context.Context, owner string) error
}

// Sessions resolves and revokes session tokens. *auth.Authenticator
// satisfies it.
type Sessions interface {
	Resolve(ctx context.Context, token string) (string, error)
	SignOutEverywhere(ctx context.Context, owner string) error
}

// AttachmentPurger removes an owner's stored attachments.
type AttachmentPurger interface {
	PurgeOwner(ctx context.Context, owner string) error
}

// Config holds the server's wiring.
type Config struct {
	ListenAddr string
	// HomepageBoardID is the fixed public board; empty disables the
	// homepage endpoint with a configuration error.
	HomepageBoardID string
}

// Server is the HTTP API server.
type Server struct {
	cfg      Config
	admin    BoardAdmin
	sessions Sessions
	storage  AttachmentPurger
	hub      *Hub
	logger   *slog.Logger

	httpServer *http.Server
}

// New assembles the server with its routes and middleware. hub may be nil
// when the push channel is not served.
func New(cfg Config, admin BoardAdmin, sessions Sessions, storage AttachmentPurger, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		admin:    admin,
		sessions: sessions,
		storage:  storage,
		hub:      hub,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/homepage-board", s.handleHomepageBoard)
	mux.Handle("POST /api/auth/delete-account", s.requireAuth(http.HandlerFunc(s.handleDeleteAccount)))
	if hub != nil {
		mux.Handle("GET /api/subscribe", s.requireAuth(http.HandlerFunc(s.handleSubscribe)))
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	var handler http.Handler = mux
	handler = RecoverMiddleware(logger)(handler)
	handler = LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the assembled HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// requireAuth resolves the bearer token and stores the owner in the
// request context. Missing, invalid, or slow-to-resolve tokens get 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		owner, err := s.sessions.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) {
				s.logger.Error("token resolution failed", "error", err)
			}
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithOwner(r.Context(), owner)))
	})
}

// bearerToken pulls the session token from the Authorization header, or
// from the access_token query parameter for WebSocket clients that cannot
// set headers.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding a plain struct to a ResponseWriter cannot fail in a way
	// the handler could still report.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
