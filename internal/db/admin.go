package db

import (
	"context"
	"fmt"

	"github.com/thinkable-app/thinkable-go/internal/models"
)

// Admin wraps a root-authenticated client whose queries bypass owner
// scoping. It is constructed only by the HTTP layer, for the two elevated
// operations the API exposes: homepage-board lookup and account deletion.
type Admin struct {
	c *Client
}

// NewAdmin wraps an already-connected root-auth client.
func NewAdmin(c *Client) *Admin {
	return &Admin{c: c}
}

// BoardBundle is everything needed to render one board without auth.
type BoardBundle struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []models.Message    `json:"messages"`
	Nodes        []models.CanvasNode `json:"nodes"`
}

// GetBoardBundle fetches a conversation with its messages and canvas nodes
// regardless of owner. Used for the public homepage board.
func (a *Admin) GetBoardBundle(ctx context.Context, convID string) (*BoardBundle, error) {
	conv, err := queryOne[models.Conversation](ctx, a.c, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": convID})
	if err != nil {
		return nil, fmt.Errorf("get board bundle: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}

	msgs, err := query[models.Message](ctx, a.c, `
		SELECT * FROM message
		WHERE conversation = type::record("conversation", $id)
		ORDER BY created_at ASC
	`, map[string]any{"id": convID})
	if err != nil {
		return nil, fmt.Errorf("get board bundle messages: %w", err)
	}

	nodes, err := query[models.CanvasNode](ctx, a.c, `
		SELECT * FROM canvas_node
		WHERE conversation = type::record("conversation", $id)
		ORDER BY created_at ASC
	`, map[string]any{"id": convID})
	if err != nil {
		return nil, fmt.Errorf("get board bundle nodes: %w", err)
	}

	return &BoardBundle{Conversation: *conv, Messages: msgs, Nodes: nodes}, nil
}

// DeleteOwner removes every row the owner has: messages, canvas nodes,
// conversations, projects, sessions, and finally the profile. One query so a
// half-deleted account is only possible if the statement itself fails.
func (a *Admin) DeleteOwner(ctx context.Context, owner string) error {
	err := a.c.exec(ctx, `
		DELETE message WHERE owner = $owner;
		DELETE canvas_node WHERE owner = $owner;
		DELETE conversation WHERE owner = $owner;
		DELETE project WHERE owner = $owner;
		DELETE session WHERE owner = $owner;
		DELETE profile WHERE owner = $owner;
	`, map[string]any{"owner": owner})
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	return nil
}
