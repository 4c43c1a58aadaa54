// Package service provides the business logic above the data layer:
// board lifecycle, auto-titling, and profile management.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thinkable-app/thinkable-go/internal/db"
	"github.com/thinkable-app/thinkable-go/internal/llm"
	"github.com/thinkable-app/thinkable-go/internal/models"
	"github.com/thinkable-app/thinkable-go/internal/realtime"
)

// DefaultBoardTitle is the placeholder before auto-titling runs.
const DefaultBoardTitle = "Untitled board"

// BoardService handles board lifecycle: creation, messages, bookmarks,
// and the auto-title trigger after the first user message.
type BoardService struct {
	db     *db.Client
	titler *llm.Titler
	bus    *realtime.Bus
	logger *slog.Logger

	// titlingDisabled flips after a fatal provider error so a dead API
	// key does not get retried on every new board.
	titlingDisabled bool
}

// NewBoardService creates a board service. titler and bus may be nil.
func NewBoardService(dbc *db.Client, titler *llm.Titler, bus *realtime.Bus, logger *slog.Logger) *BoardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoardService{db: dbc, titler: titler, bus: bus, logger: logger}
}

// Create creates a board with an explicit title.
func (s *BoardService) Create(ctx context.Context, owner, title string, meta models.Meta) (*models.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultBoardTitle
	}
	conv, err := s.db.QueryCreateConversation(ctx, owner, title, meta)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.publish(realtime.EventConversationCreated, models.MustRecordIDString(conv.ID))
	return conv, nil
}

// Append appends a message to a board. An empty boardID creates the board
// implicitly, so the first message of a fresh chat needs no separate
// create call. The first user message on an untitled board triggers
// auto-titling.
func (s *BoardService) Append(ctx context.Context, owner, boardID, role, content string) (*models.Message, *models.Conversation, error) {
	var conv *models.Conversation
	var err error

	if boardID == "" {
		conv, err = s.db.QueryCreateConversation(ctx, owner, DefaultBoardTitle, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("create board for message: %w", err)
		}
		boardID = models.MustRecordIDString(conv.ID)
		s.publish(realtime.EventConversationCreated, boardID)
	} else {
		conv, err = s.db.QueryGetConversation(ctx, owner, boardID)
		if err != nil {
			return nil, nil, fmt.Errorf("load board: %w", err)
		}
	}

	msg, err := s.db.QueryAppendMessage(ctx, owner, boardID, role, content)
	if err != nil {
		return nil, nil, fmt.Errorf("append message: %w", err)
	}

	if role == models.RoleUser && s.shouldAutoTitle(conv) {
		s.autoTitle(ctx, owner, boardID, content)
	}

	return msg, conv, nil
}

// shouldAutoTitle reports whether the board still carries a generated or
// placeholder title the titler may overwrite.
func (s *BoardService) shouldAutoTitle(conv *models.Conversation) bool {
	if s.titler == nil || s.titlingDisabled {
		return false
	}
	if conv.Metadata.ManuallyRenamed() {
		return false
	}
	return conv.Title == "" || conv.Title == DefaultBoardTitle
}

// autoTitle renames the board from its first message, best effort. The
// rename is not a manual one, so a later manual rename still wins.
func (s *BoardService) autoTitle(ctx context.Context, owner, boardID, firstMessage string) {
	title, err := s.titler.Title(ctx, firstMessage)
	if err != nil {
		if errors.Is(err, llm.ErrFatalAPI) {
			s.logger.Error("disabling auto-titling after fatal provider error", "error", err)
			s.titlingDisabled = true
		} else {
			s.logger.Warn("auto-title failed", "board", boardID, "error", err)
		}
		return
	}
	if err := s.db.QueryRenameConversation(ctx, owner, boardID, title, false); err != nil {
		s.logger.Warn("auto-title rename failed", "board", boardID, "error", err)
		return
	}
	s.publish(realtime.EventConversationUpdated, boardID)
}

// Rename applies a user-initiated rename, which pins the title against
// future auto-titling.
func (s *BoardService) Rename(ctx context.Context, owner, boardID, title string) error {
	if err := s.db.QueryRenameConversation(ctx, owner, boardID, title, true); err != nil {
		return fmt.Errorf("rename board: %w", err)
	}
	s.publish(realtime.EventConversationUpdated, boardID)
	return nil
}

// Delete removes a board with its messages and canvas nodes.
func (s *BoardService) Delete(ctx context.Context, owner, boardID string) error {
	if err := s.db.QueryDeleteConversation(ctx, owner, boardID); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	s.publish(realtime.EventConversationDeleted, boardID)
	return nil
}

// SetBookmark marks or unmarks one message.
func (s *BoardService) SetBookmark(ctx context.Context, owner, messageID string, bookmarked bool) error {
	if err := s.db.QuerySetMessageBookmark(ctx, owner, messageID, bookmarked); err != nil {
		return fmt.Errorf("set bookmark: %w", err)
	}
	return nil
}

// BookmarkCount returns the number of bookmarked messages on a board.
func (s *BoardService) BookmarkCount(ctx context.Context, owner, boardID string) (int, error) {
	n, err := s.db.QueryCountBookmarks(ctx, owner, boardID)
	if err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}
	return n, nil
}

func (s *BoardService) publish(event, detail string) {
	if s.bus != nil {
		s.bus.Publish(event, detail)
	}
}
