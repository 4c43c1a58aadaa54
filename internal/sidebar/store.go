package sidebar

import (
	"context"

	"github.com/thinkable-app/thinkable-go/internal/db"
	"github.com/thinkable-app/thinkable-go/internal/models"
)

// dbStore adapts *db.Client to Store with the owner closured in.
type dbStore struct {
	client *db.Client
	owner  string
}

// NewStore binds a database client and owner into the sidebar's Store.
func NewStore(client *db.Client, owner string) Store {
	return &dbStore{client: client, owner: owner}
}

func (s *dbStore) MergeConversationMeta(ctx context.Context, id string, patch models.Meta) error {
	return s.client.QueryMergeConversationMeta(ctx, s.owner, id, patch)
}

func (s *dbStore) UnsetConversationMetaKey(ctx context.Context, id, key string) error {
	return s.client.QueryUnsetConversationMetaKey(ctx, s.owner, id, key)
}

func (s *dbStore) SetConversationPositions(ctx context.Context, ids []string) error {
	return s.client.QuerySetConversationPositions(ctx, s.owner, ids)
}

func (s *dbStore) RenameConversation(ctx context.Context, id, title string) error {
	return s.client.QueryRenameConversation(ctx, s.owner, id, title, true)
}

func (s *dbStore) DeleteConversation(ctx context.Context, id string) error {
	return s.client.QueryDeleteConversation(ctx, s.owner, id)
}
