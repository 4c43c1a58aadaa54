package server

import (
	"errors"
	"net/http"

	"github.com/thinkable-app/thinkable-go/internal/auth"
	"github.com/thinkable-app/thinkable-go/internal/db"
)

// handleHomepageBoard serves the fixed public board shown to signed-out
// visitors. It uses the elevated admin client: the board belongs to a real
// account but renders without auth.
func (s *Server) handleHomepageBoard(w http.ResponseWriter, r *http.Request) {
	if s.cfg.HomepageBoardID == "" {
		writeError(w, http.StatusInternalServerError, "HOMEPAGE_BOARD_ID not configured")
		return
	}

	bundle, err := s.admin.GetBoardBundle(r.Context(), s.cfg.HomepageBoardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "homepage board not found")
			return
		}
		s.logger.Error("homepage board lookup failed", "board", s.cfg.HomepageBoardID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load homepage board")
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type deleteAccountResponse struct {
	Success   bool   `json:"success"`
	SignedOut bool   `json:"signedOut"`
	Error     string `json:"error,omitempty"`
}

// handleDeleteAccount removes the authenticated user and everything they
// own. Storage is purged first, the row deletion is retried once, and the
// session sign-out always runs so a half-failed deletion does not leave
// the browser holding a token for a broken account.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := auth.OwnerFromContext(ctx)

	if err := s.storage.PurgeOwner(ctx, owner); err != nil {
		s.logger.Warn("attachment purge failed, continuing with row deletion", "owner", owner, "error", err)
	}

	deleteErr := s.admin.DeleteOwner(ctx, owner)
	if deleteErr != nil {
		s.logger.Warn("account deletion failed, retrying once", "owner", owner, "error", deleteErr)
		if err := s.storage.PurgeOwner(ctx, owner); err != nil {
			s.logger.Warn("attachment purge failed on retry", "owner", owner, "error", err)
		}
		deleteErr = s.admin.DeleteOwner(ctx, owner)
	}

	signedOut := true
	if err := s.sessions.SignOutEverywhere(ctx, owner); err != nil {
		s.logger.Warn("sign-out after account deletion failed", "owner", owner, "error", err)
		signedOut = false
	}

	if deleteErr != nil {
		s.logger.Error("account deletion failed after retry", "owner", owner, "error", deleteErr)
		writeJSON(w, http.StatusInternalServerError, deleteAccountResponse{
			Success:   false,
			SignedOut: signedOut,
			Error:     "account deletion failed",
		})
		return
	}

	s.logger.Info("account deleted", "owner", owner)
	writeJSON(w, http.StatusOK, deleteAccountResponse{Success: true, SignedOut: signedOut})
}
