package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/thinkable-app/thinkable-go/internal/metrics"
)

// Change actions reported by a live subscription.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// ChangeEvent is one row change pushed by the database.
type ChangeEvent struct {
	Table  string
	Action string
	// Record is the row payload as a generic map; for deletes it is the
	// last known state of the row.
	Record map[string]any
}

// RecordIDString extracts the row id from the event payload, empty if the
// payload has no decodable id.
func (e ChangeEvent) RecordIDString() string {
	switch id := e.Record["id"].(type) {
	case surrealmodels.RecordID:
		if s, ok := id.ID.(string); ok {
			return s
		}
	case *surrealmodels.RecordID:
		if id != nil {
			if s, ok := id.ID.(string); ok {
				return s
			}
		}
	case string:
		return id
	}
	return ""
}

// Owner extracts the owner field from the event payload.
func (e ChangeEvent) Owner() string {
	s, _ := e.Record["owner"].(string)
	return s
}

// Subscribe opens a live query on table and streams change events whose
// owner field matches owner. The subscription runs until ctx is cancelled,
// after which the returned channel is closed and the live query killed.
//
// The table-wide live query is filtered client-side by owner rather than
// with a WHERE clause so one code path serves both the user-scoped
// reconciler and the server's fan-out hub (which passes owner == "").
func (c *Client) Subscribe(ctx context.Context, table, owner string) (<-chan ChangeEvent, error) {
	liveID, err := surrealdb.Live(ctx, c.db, surrealmodels.Table(table), false)
	if err != nil {
		return nil, fmt.Errorf("live %s: %w", table, err)
	}

	notifications, err := c.db.LiveNotifications(liveID.String())
	if err != nil {
		killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = surrealdb.Kill(killCtx, c.db, liveID.String())
		return nil, fmt.Errorf("live notifications %s: %w", table, err)
	}

	out := make(chan ChangeEvent, 16)

	go func() {
		defer close(out)
		defer func() {
			// The subscription context is gone; bound the KILL round trip.
			killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := surrealdb.Kill(killCtx, c.db, liveID.String()); err != nil {
				c.logger.Warn("failed to kill live query", "table", table, "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-notifications:
				if !ok {
					return
				}
				ev, ok := decodeNotification(table, n)
				if !ok {
					continue
				}
				if owner != "" && ev.Owner() != owner {
					continue
				}
				c.metrics.RecordOp(metrics.OpDBLive, 0)
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// decodeNotification converts an SDK notification into a ChangeEvent.
func decodeNotification(table string, n connection.Notification) (ChangeEvent, bool) {
	record, ok := n.Result.(map[string]any)
	if !ok {
		return ChangeEvent{}, false
	}

	var action string
	switch n.Action {
	case connection.CreateAction:
		action = ActionCreate
	case connection.UpdateAction:
		action = ActionUpdate
	case connection.DeleteAction:
		action = ActionDelete
	default:
		return ChangeEvent{}, false
	}

	return ChangeEvent{Table: table, Action: action, Record: record}, true
}
