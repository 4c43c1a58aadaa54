package sidebar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thinkable-app/thinkable-go/internal/cache"
	"github.com/thinkable-app/thinkable-go/internal/models"
	"github.com/thinkable-app/thinkable-go/internal/realtime"
)

// Store is the remote mutation surface the sidebar needs, owner scoping
// already applied. *db.Client is adapted via NewStore.
type Store interface {
	MergeConversationMeta(ctx context.Context, id string, patch models.Meta) error
	UnsetConversationMetaKey(ctx context.Context, id, key string) error
	SetConversationPositions(ctx context.Context, ids []string) error
	RenameConversation(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error
}

// Controller owns one sidebar mount: the drag state, the expanded/collapsed
// section flags, and the mutation handlers. Every mutation follows
// optimistic-patch, remote call, invalidate+refetch; on failure the error
// is surfaced through the alert hook and the refetch has already replaced
// the optimistic guess.
type Controller struct {
	mu    sync.Mutex
	state DragState

	cache  *cache.Cache
	store  Store
	logger *slog.Logger
	// alert surfaces a mutation failure to the user. Never nil.
	alert func(error)

	expanded map[string]bool
}

// New creates a sidebar controller. alert may be nil.
func New(c *cache.Cache, store Store, logger *slog.Logger, alert func(error)) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if alert == nil {
		alert = func(error) {}
	}
	return &Controller{
		state:  Idle(),
		cache:  c,
		store:  store,
		logger: logger,
		alert:  alert,
		// Sections start expanded.
		expanded: map[string]bool{"studySets": true, "projects": true, "boards": true},
	}
}

// State returns the current drag state.
func (c *Controller) State() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle feeds one event through the reducer and applies any resulting
// mutation. The snapshot is derived from the cache at event time.
func (c *Controller) Handle(ctx context.Context, ev Event) {
	snap := c.snapshot()

	c.mu.Lock()
	next, m := Reduce(c.state, ev, snap)
	c.state = next
	c.mu.Unlock()

	if m.Kind == MutateNone {
		return
	}
	if err := c.Apply(ctx, m); err != nil {
		c.logger.Warn("sidebar mutation failed", "kind", m.Kind, "board", m.BoardID, "error", err)
		c.alert(err)
	}
}

// Apply persists one mutation with an optimistic cache patch.
func (c *Controller) Apply(ctx context.Context, m Mutation) error {
	switch m.Kind {
	case MutateReparentIn:
		return c.cache.Mutate(ctx, realtime.KeyConversations,
			patchBoardMeta(m.BoardID, func(meta models.Meta) models.Meta {
				return meta.With(models.MetaProjectID, m.ProjectID)
			}),
			func(ctx context.Context) error {
				return c.store.MergeConversationMeta(ctx, m.BoardID, models.Meta{models.MetaProjectID: m.ProjectID})
			})

	case MutateReparentOut:
		return c.cache.Mutate(ctx, realtime.KeyConversations,
			patchBoardMeta(m.BoardID, func(meta models.Meta) models.Meta {
				return meta.Without(models.MetaProjectID)
			}),
			func(ctx context.Context) error {
				return c.store.UnsetConversationMetaKey(ctx, m.BoardID, models.MetaProjectID)
			})

	case MutateReorder:
		position := make(map[string]int, len(m.Order))
		for i, id := range m.Order {
			position[id] = i
		}
		return c.cache.Mutate(ctx, realtime.KeyConversations,
			func(cur any) any {
				convs, ok := cur.([]models.Conversation)
				if !ok {
					return cur
				}
				out := make([]models.Conversation, len(convs))
				copy(out, convs)
				for i, conv := range out {
					if pos, ok := position[models.MustRecordIDString(conv.ID)]; ok {
						out[i].Metadata = conv.Metadata.With(models.MetaPosition, pos)
					}
				}
				return out
			},
			func(ctx context.Context) error {
				return c.store.SetConversationPositions(ctx, m.Order)
			})

	case MutateNone:
		return nil
	}
	return fmt.Errorf("unknown mutation kind %q", m.Kind)
}

// Rename renames a board; when manual, auto-titling stops touching it.
func (c *Controller) Rename(ctx context.Context, boardID, title string) error {
	err := c.cache.Mutate(ctx, realtime.KeyConversations,
		func(cur any) any {
			convs, ok := cur.([]models.Conversation)
			if !ok {
				return cur
			}
			out := make([]models.Conversation, len(convs))
			copy(out, convs)
			for i, conv := range out {
				if models.MustRecordIDString(conv.ID) == boardID {
					out[i].Title = title
					out[i].Metadata = conv.Metadata.With(models.MetaManuallyRenamed, true)
				}
			}
			return out
		},
		func(ctx context.Context) error {
			return c.store.RenameConversation(ctx, boardID, title)
		})
	if err != nil {
		c.alert(err)
	}
	return err
}

// Delete removes a board.
func (c *Controller) Delete(ctx context.Context, boardID string) error {
	err := c.cache.Mutate(ctx, realtime.KeyConversations,
		func(cur any) any {
			convs, ok := cur.([]models.Conversation)
			if !ok {
				return cur
			}
			out := make([]models.Conversation, 0, len(convs))
			for _, conv := range convs {
				if models.MustRecordIDString(conv.ID) != boardID {
					out = append(out, conv)
				}
			}
			return out
		},
		func(ctx context.Context) error {
			return c.store.DeleteConversation(ctx, boardID)
		})
	if err != nil {
		c.alert(err)
	}
	return err
}

// Archive hides a board from the sidebar without deleting it.
func (c *Controller) Archive(ctx context.Context, boardID string) error {
	err := c.cache.Mutate(ctx, realtime.KeyConversations,
		patchBoardMeta(boardID, func(meta models.Meta) models.Meta {
			return meta.With(models.MetaArchived, true)
		}),
		func(ctx context.Context) error {
			return c.store.MergeConversationMeta(ctx, boardID, models.Meta{models.MetaArchived: true})
		})
	if err != nil {
		c.alert(err)
	}
	return err
}

// Lists derives the three sidebar sections from the cache.
func (c *Controller) Lists(ctx context.Context) (Lists, error) {
	convs, err := c.conversations(ctx)
	if err != nil {
		return Lists{}, err
	}
	rawProjects, err := c.cache.Get(ctx, realtime.KeyProjects)
	if err != nil {
		return Lists{}, err
	}
	projects, _ := rawProjects.([]models.Project)

	var profile *models.Profile
	if rawProfile, err := c.cache.Get(ctx, realtime.KeyProfile); err == nil {
		profile, _ = rawProfile.(*models.Profile)
	}

	return BuildLists(convs, projects, profile), nil
}

// ToggleSection flips a section's expanded flag and reports the new value.
func (c *Controller) ToggleSection(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded[name] = !c.expanded[name]
	return c.expanded[name]
}

// Expanded reports whether a section is expanded.
func (c *Controller) Expanded(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded[name]
}

// snapshot derives the drop-resolution structure from whatever the cache
// currently holds. An unfetched cache yields an empty snapshot, which makes
// every drop a no-op.
func (c *Controller) snapshot() Snapshot {
	var convs []models.Conversation
	if raw, ok := c.cache.Peek(realtime.KeyConversations); ok {
		convs, _ = raw.([]models.Conversation)
	}
	var projects []models.Project
	if raw, ok := c.cache.Peek(realtime.KeyProjects); ok {
		projects, _ = raw.([]models.Project)
	}
	return BuildSnapshot(convs, projects)
}

func (c *Controller) conversations(ctx context.Context) ([]models.Conversation, error) {
	raw, err := c.cache.Get(ctx, realtime.KeyConversations)
	if err != nil {
		return nil, err
	}
	convs, _ := raw.([]models.Conversation)
	return convs, nil
}

// patchBoardMeta returns an updater rewriting one board's metadata in the
// cached conversation list.
func patchBoardMeta(boardID string, transform func(models.Meta) models.Meta) cache.Updater {
	return func(cur any) any {
		convs, ok := cur.([]models.Conversation)
		if !ok {
			return cur
		}
		out := make([]models.Conversation, len(convs))
		copy(out, convs)
		for i, conv := range out {
			if models.MustRecordIDString(conv.ID) == boardID {
				out[i].Metadata = transform(conv.Metadata)
			}
		}
		return out
	}
}
