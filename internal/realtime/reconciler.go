package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/thinkable-app/thinkable-go/internal/cache"
)

// Cache keys the reconciler maintains. Bookmark counts use BookmarkKey.
const (
	KeyConversations = "conversations"
	KeyProjects      = "projects"
	KeyProfile       = "profile"
	KeyStudySets     = "studySets"
)

// BookmarkKey is the per-board bookmark-count cache key.
func BookmarkKey(boardID string) string {
	return "bookmarks:" + boardID
}

// ChangeSource opens a stream of change notifications for one table,
// scoped to an owner. *db.Client.Subscribe is adapted to this shape by the
// caller; keeping the dependency as a function avoids importing db here.
type ChangeSource func(ctx context.Context, table, owner string) (<-chan Change, error)

// Change is the slice of a push notification the reconciler needs.
type Change struct {
	Table  string
	Action string
	RowID  string
}

// Reconciler binds live subscriptions to cache invalidation: any change to
// the owner's conversations, projects, or profile row invalidates the
// matching cache key and refetches for active subscribers. This is how one
// tab's change becomes visible in another, and how server-side triggers
// such as auto-titling reach the sidebar.
type Reconciler struct {
	cache  *cache.Cache
	source ChangeSource
	logger *slog.Logger
}

// NewReconciler creates a reconciler over the given change source.
func NewReconciler(c *cache.Cache, source ChangeSource, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{cache: c, source: source, logger: logger}
}

// tableKeys maps a changed table to the cache keys it dirties. A profile
// change dirties both the profile entry and the derived study-set list.
func tableKeys(table string) []string {
	switch table {
	case "conversation":
		return []string{KeyConversations}
	case "project":
		return []string{KeyProjects}
	case "profile":
		return []string{KeyProfile, KeyStudySets}
	}
	return nil
}

// Run subscribes to all three tables and reconciles until ctx is cancelled.
// It returns once all subscription loops have stopped.
func (r *Reconciler) Run(ctx context.Context, owner string) error {
	tables := []string{"conversation", "project", "profile"}

	channels := make([]<-chan Change, 0, len(tables))
	for _, table := range tables {
		ch, err := r.source(ctx, table, owner)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", table, err)
		}
		channels = append(channels, ch)
	}

	done := make(chan struct{})
	for i, ch := range channels {
		go func(table string, ch <-chan Change) {
			defer func() { done <- struct{}{} }()
			r.loop(ctx, table, ch)
		}(tables[i], ch)
	}
	for range channels {
		<-done
	}
	return nil
}

func (r *Reconciler) loop(ctx context.Context, table string, ch <-chan Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.logger.Debug("push notification", "table", ev.Table, "action", ev.Action, "row", ev.RowID)
			for _, key := range tableKeys(ev.Table) {
				r.cache.Invalidate(ctx, key)
			}
		}
	}
}
