// Package db provides SurrealDB query functions for Thinkable rows.
//
// Every query here is owner-scoped: callers pass the authenticated owner id
// and the WHERE clause filters on it, mirroring the row-level security the
// hosted deployment enforces. Only the admin client bypasses this.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/thinkable-app/thinkable-go/internal/metrics"
	"github.com/thinkable-app/thinkable-go/internal/models"
)

// allowedMetaKeys guards dynamic meta-key paths interpolated into SurrealQL.
// Values always travel as bind parameters; only key names are interpolated.
var allowedMetaKeys = map[string]bool{
	models.MetaProjectID:       true,
	models.MetaPosition:        true,
	models.MetaArchived:        true,
	models.MetaManuallyRenamed: true,
	models.MetaBookmarked:      true,
	models.MetaStudySets:       true,
	models.MetaTheme:           true,
}

// query runs a typed query and unwraps the first statement's result set.
func query[T any](ctx context.Context, c *Client, sql string, vars map[string]any) ([]T, error) {
	start := time.Now()
	results, err := surrealdb.Query[[]T](ctx, c.db, sql, vars)
	c.metrics.RecordOp(metrics.OpDBQuery, time.Since(start))
	if err != nil {
		return nil, wrapQueryError(err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[0].Result, nil
}

// queryOne runs a typed query expected to yield at most one row.
func queryOne[T any](ctx context.Context, c *Client, sql string, vars map[string]any) (*T, error) {
	rows, err := query[T](ctx, c, sql, vars)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// exec runs a query whose results the caller does not need.
func (c *Client) exec(ctx context.Context, sql string, vars map[string]any) error {
	start := time.Now()
	_, err := surrealdb.Query[any](ctx, c.db, sql, vars)
	c.metrics.RecordOp(metrics.OpDBQuery, time.Since(start))
	return wrapQueryError(err)
}

// =============================================================================
// CONVERSATIONS (boards)
// =============================================================================

// QueryListConversations returns all of an owner's conversations, ordered by
// the optional metadata position then most recently updated.
func (c *Client) QueryListConversations(ctx context.Context, owner string) ([]models.Conversation, error) {
	rows, err := query[models.Conversation](ctx, c, `
		SELECT * FROM conversation WHERE owner = $owner
		ORDER BY metadata.position ASC, updated_at DESC
	`, map[string]any{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return rows, nil
}

// QueryGetConversation retrieves a conversation by id.
// Returns ErrNotFound if absent and ErrNotOwned if it belongs to someone else.
func (c *Client) QueryGetConversation(ctx context.Context, owner, id string) (*models.Conversation, error) {
	conv, err := queryOne[models.Conversation](ctx, c, `
		SELECT * FROM type::record("conversation", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	if conv.Owner != owner {
		return nil, ErrNotOwned
	}
	return conv, nil
}

// QueryCreateConversation creates a conversation with optional metadata.
func (c *Client) QueryCreateConversation(ctx context.Context, owner, title string, meta models.Meta) (*models.Conversation, error) {
	conv, err := queryOne[models.Conversation](ctx, c, `
		CREATE conversation SET
			title = $title,
			owner = $owner,
			metadata = $meta,
			created_at = time::now(),
			updated_at = time::now()
	`, map[string]any{"title": title, "owner": owner, "meta": map[string]any(meta)})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("create conversation: no row returned")
	}
	return conv, nil
}

// QueryRenameConversation sets the title. When manual is true the rename is
// recorded in metadata so auto-titling will not overwrite it later.
func (c *Client) QueryRenameConversation(ctx context.Context, owner, id, title string, manual bool) error {
	sql := `
		UPDATE type::record("conversation", $id)
		SET title = $title, updated_at = time::now()
		WHERE owner = $owner
	`
	if manual {
		sql = `
			UPDATE type::record("conversation", $id)
			SET title = $title, metadata.manuallyRenamed = true, updated_at = time::now()
			WHERE owner = $owner
		`
	}
	if err := c.exec(ctx, sql, map[string]any{"id": id, "title": title, "owner": owner}); err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	return nil
}

// QueryMergeConversationMeta merges the given keys into the conversation's
// metadata map, preserving all keys not named in patch.
func (c *Client) QueryMergeConversationMeta(ctx context.Context, owner, id string, patch models.Meta) error {
	err := c.exec(ctx, `
		UPDATE type::record("conversation", $id)
		MERGE { metadata: $patch, updated_at: time::now() }
		WHERE owner = $owner
	`, map[string]any{"id": id, "patch": map[string]any(patch), "owner": owner})
	if err != nil {
		return fmt.Errorf("merge conversation meta: %w", err)
	}
	return nil
}

// QueryUnsetConversationMetaKey removes exactly one metadata key, leaving
// all other keys untouched. Key must be one of the known metadata keys.
func (c *Client) QueryUnsetConversationMetaKey(ctx context.Context, owner, id, key string) error {
	if !allowedMetaKeys[key] {
		return fmt.Errorf("unset conversation meta: unknown key %q", key)
	}
	err := c.exec(ctx, fmt.Sprintf(`
		UPDATE type::record("conversation", $id)
		SET metadata.%s = NONE, updated_at = time::now()
		WHERE owner = $owner
	`, key), map[string]any{"id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("unset conversation meta: %w", err)
	}
	return nil
}

// QuerySetConversationPositions writes a dense 0-based position onto every
// conversation in ids, in the given order, in a single round trip.
func (c *Client) QuerySetConversationPositions(ctx context.Context, owner string, ids []string) error {
	err := c.exec(ctx, `
		FOR $i IN 0..<array::len($ids) {
			UPDATE type::record("conversation", $ids[$i])
			SET metadata.position = $i, updated_at = time::now()
			WHERE owner = $owner;
		}
	`, map[string]any{"ids": ids, "owner": owner})
	if err != nil {
		return fmt.Errorf("set conversation positions: %w", err)
	}
	return nil
}

// QueryDeleteConversation deletes a conversation and cascades to its
// messages and canvas nodes.
func (c *Client) QueryDeleteConversation(ctx context.Context, owner, id string) error {
	err := c.exec(ctx, `
		DELETE message WHERE conversation = type::record("conversation", $id) AND owner = $owner;
		DELETE canvas_node WHERE conversation = type::record("conversation", $id) AND owner = $owner;
		DELETE type::record("conversation", $id) WHERE owner = $owner;
	`, map[string]any{"id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

// QueryListProjects returns all of an owner's projects ordered by position.
func (c *Client) QueryListProjects(ctx context.Context, owner string) ([]models.Project, error) {
	rows, err := query[models.Project](ctx, c, `
		SELECT * FROM project WHERE owner = $owner
		ORDER BY metadata.position ASC, created_at ASC
	`, map[string]any{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return rows, nil
}

// QueryCreateProject creates a project.
func (c *Client) QueryCreateProject(ctx context.Context, owner, name string, meta models.Meta) (*models.Project, error) {
	proj, err := queryOne[models.Project](ctx, c, `
		CREATE project SET
			name = $name,
			owner = $owner,
			metadata = $meta,
			created_at = time::now(),
			updated_at = time::now()
	`, map[string]any{"name": name, "owner": owner, "meta": map[string]any(meta)})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if proj == nil {
		return nil, fmt.Errorf("create project: no row returned")
	}
	return proj, nil
}

// QueryRenameProject sets the project name.
func (c *Client) QueryRenameProject(ctx context.Context, owner, id, name string) error {
	err := c.exec(ctx, `
		UPDATE type::record("project", $id)
		SET name = $name, updated_at = time::now()
		WHERE owner = $owner
	`, map[string]any{"id": id, "name": name, "owner": owner})
	if err != nil {
		return fmt.Errorf("rename project: %w", err)
	}
	return nil
}

// QueryDeleteProject deletes the project row only. Boards referencing it via
// metadata.project_id are NOT touched: they fall out of the project because
// nothing matches their back-reference anymore.
func (c *Client) QueryDeleteProject(ctx context.Context, owner, id string) error {
	err := c.exec(ctx, `
		DELETE type::record("project", $id) WHERE owner = $owner
	`, map[string]any{"id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// QueryListMessages returns a conversation's messages in chronological order.
func (c *Client) QueryListMessages(ctx context.Context, owner, convID string) ([]models.Message, error) {
	rows, err := query[models.Message](ctx, c, `
		SELECT * FROM message
		WHERE conversation = type::record("conversation", $conv) AND owner = $owner
		ORDER BY created_at ASC
	`, map[string]any{"conv": convID, "owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return rows, nil
}

// QueryAppendMessage appends one message to a conversation.
func (c *Client) QueryAppendMessage(ctx context.Context, owner, convID, role, content string) (*models.Message, error) {
	msg, err := queryOne[models.Message](ctx, c, `
		CREATE message SET
			conversation = type::record("conversation", $conv),
			owner = $owner,
			role = $role,
			content = $content,
			created_at = time::now()
	`, map[string]any{"conv": convID, "owner": owner, "role": role, "content": content})
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("append message: no row returned")
	}
	return msg, nil
}

// QuerySetMessageBookmark toggles the bookmarked flag on a message.
func (c *Client) QuerySetMessageBookmark(ctx context.Context, owner, msgID string, bookmarked bool) error {
	err := c.exec(ctx, `
		UPDATE type::record("message", $id)
		SET metadata.bookmarked = $on
		WHERE owner = $owner
	`, map[string]any{"id": msgID, "on": bookmarked, "owner": owner})
	if err != nil {
		return fmt.Errorf("set message bookmark: %w", err)
	}
	return nil
}

type countRow struct {
	Count int `json:"count"`
}

// QueryCountBookmarks counts bookmarked messages within a conversation.
func (c *Client) QueryCountBookmarks(ctx context.Context, owner, convID string) (int, error) {
	row, err := queryOne[countRow](ctx, c, `
		SELECT count() AS count FROM message
		WHERE conversation = type::record("conversation", $conv)
			AND owner = $owner
			AND metadata.bookmarked = true
		GROUP ALL
	`, map[string]any{"conv": convID, "owner": owner})
	if err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}
	if row == nil {
		return 0, nil
	}
	return row.Count, nil
}

// =============================================================================
// CANVAS NODES
// =============================================================================

// QueryListCanvasNodes returns a board's canvas nodes in creation order.
func (c *Client) QueryListCanvasNodes(ctx context.Context, owner, convID string) ([]models.CanvasNode, error) {
	rows, err := query[models.CanvasNode](ctx, c, `
		SELECT * FROM canvas_node
		WHERE conversation = type::record("conversation", $conv) AND owner = $owner
		ORDER BY created_at ASC
	`, map[string]any{"conv": convID, "owner": owner})
	if err != nil {
		return nil, fmt.Errorf("list canvas nodes: %w", err)
	}
	return rows, nil
}

// QueryInsertCanvasNode persists one canvas node with a caller-chosen id.
func (c *Client) QueryInsertCanvasNode(ctx context.Context, owner string, n models.CanvasNode) (*models.CanvasNode, error) {
	node, err := queryOne[models.CanvasNode](ctx, c, `
		CREATE type::record("canvas_node", $id) SET
			conversation = $conv,
			owner = $owner,
			kind = $kind,
			x = $x, y = $y, width = $w, height = $h,
			style = $style,
			text = $text,
			created_at = time::now()
	`, map[string]any{
		"id":    n.ID.ID,
		"conv":  n.Conversation,
		"owner": owner,
		"kind":  n.Kind,
		"x":     n.X, "y": n.Y, "w": n.Width, "h": n.Height,
		"style": n.Style,
		"text":  n.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("insert canvas node: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("insert canvas node: no row returned")
	}
	return node, nil
}

// QueryDeleteCanvasNode removes a node from a board.
func (c *Client) QueryDeleteCanvasNode(ctx context.Context, owner, id string) error {
	err := c.exec(ctx, `
		DELETE type::record("canvas_node", $id) WHERE owner = $owner
	`, map[string]any{"id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("delete canvas node: %w", err)
	}
	return nil
}

// =============================================================================
// PROFILES
// =============================================================================

// QueryGetProfile returns the owner's profile row, or ErrNotFound.
func (c *Client) QueryGetProfile(ctx context.Context, owner string) (*models.Profile, error) {
	prof, err := queryOne[models.Profile](ctx, c, `
		SELECT * FROM profile WHERE owner = $owner LIMIT 1
	`, map[string]any{"owner": owner})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if prof == nil {
		return nil, ErrNotFound
	}
	return prof, nil
}

// QueryEnsureProfile returns the owner's profile, creating it on first use.
func (c *Client) QueryEnsureProfile(ctx context.Context, owner, email string) (*models.Profile, error) {
	prof, err := c.QueryGetProfile(ctx, owner)
	if err == nil {
		return prof, nil
	}
	created, err := queryOne[models.Profile](ctx, c, `
		CREATE profile SET
			owner = $owner,
			email = $email,
			metadata = {},
			created_at = time::now(),
			updated_at = time::now()
	`, map[string]any{"owner": owner, "email": email})
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("ensure profile: no row returned")
	}
	return created, nil
}

// QueryMergeProfileMeta merges keys into the profile metadata map.
func (c *Client) QueryMergeProfileMeta(ctx context.Context, owner string, patch models.Meta) error {
	err := c.exec(ctx, `
		UPDATE profile
		MERGE { metadata: $patch, updated_at: time::now() }
		WHERE owner = $owner
	`, map[string]any{"patch": map[string]any(patch), "owner": owner})
	if err != nil {
		return fmt.Errorf("merge profile meta: %w", err)
	}
	return nil
}

// QueryReplaceStudySets overwrites the whole study_sets array.
// This is a read-modify-write with no concurrency token: two simultaneous
// edits race and the last write wins.
func (c *Client) QueryReplaceStudySets(ctx context.Context, owner string, sets []models.StudySet) error {
	raw := make([]any, 0, len(sets))
	for _, s := range sets {
		raw = append(raw, map[string]any{"id": s.ID, "name": s.Name})
	}
	err := c.exec(ctx, `
		UPDATE profile
		SET metadata.study_sets = $sets, updated_at = time::now()
		WHERE owner = $owner
	`, map[string]any{"sets": raw, "owner": owner})
	if err != nil {
		return fmt.Errorf("replace study sets: %w", err)
	}
	return nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// Session is a server-side session row referenced by signed tokens.
type Session struct {
	ID        any       `json:"id"`
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryCreateSession creates a session row with the given id.
func (c *Client) QueryCreateSession(ctx context.Context, id, owner string, expiresAt time.Time) error {
	err := c.exec(ctx, `
		CREATE type::record("session", $id) SET
			owner = $owner,
			expires_at = <datetime>$expires,
			created_at = time::now()
	`, map[string]any{"id": id, "owner": owner, "expires": expiresAt.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// QueryGetSession returns a session row, or ErrNotFound.
func (c *Client) QueryGetSession(ctx context.Context, id string) (*Session, error) {
	sess, err := queryOne[Session](ctx, c, `
		SELECT * FROM type::record("session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return sess, nil
}

// QueryDeleteSession removes one session. Deleting a missing session is not
// an error: sign-out is best effort.
func (c *Client) QueryDeleteSession(ctx context.Context, id string) error {
	err := c.exec(ctx, `
		DELETE type::record("session", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// QueryDeleteSessionsForOwner signs an owner out of every device.
func (c *Client) QueryDeleteSessionsForOwner(ctx context.Context, owner string) error {
	err := c.exec(ctx, `
		DELETE session WHERE owner = $owner
	`, map[string]any{"owner": owner})
	if err != nil {
		return fmt.Errorf("delete sessions for owner: %w", err)
	}
	return nil
}
