// Package realtime reconciles the query cache against server push
// notifications and locally-fired events.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/thinkable-app/thinkable-go/internal/cache"
)

// Event names fired by sibling components that cannot reach the live
// subscription directly.
const (
	EventConversationCreated = "conversation-created"
	EventConversationUpdated = "conversation-updated"
	EventConversationDeleted = "conversation-deleted"
)

// Bus is an in-process custom-event channel. Handlers run synchronously in
// Publish order; anything slow belongs in the handler's own goroutine.
type Bus struct {
	mu       sync.Mutex
	handlers map[string]map[int]func(detail string)
	nextID   int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[int]func(detail string))}
}

// Subscribe registers a handler for the named event and returns an
// unsubscribe function.
func (b *Bus) Subscribe(event string, handler func(detail string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs, ok := b.handlers[event]
	if !ok {
		hs = make(map[int]func(detail string))
		b.handlers[event] = hs
	}
	id := b.nextID
	b.nextID++
	hs[id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(hs, id)
	}
}

// Publish fires the named event. Detail carries the affected row id, or is
// empty when the handler only needs the signal.
func (b *Bus) Publish(event, detail string) {
	b.mu.Lock()
	hs := make([]func(string), 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(detail)
	}
}

// DefaultRefetchDelays is the spacing of the delayed refetch attempts after
// a locally-fired event. Two attempts tolerate server-side propagation lag
// (the row the event announces may not be readable yet). This is a
// heuristic, not a guarantee.
var DefaultRefetchDelays = []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}

// RefetchOn invalidates the given cache keys after each delay whenever the
// event fires. Returns the unsubscribe function. Delays of nil use
// DefaultRefetchDelays; tests pass short ones.
func RefetchOn(ctx context.Context, bus *Bus, event string, c *cache.Cache, keys []string, delays []time.Duration, logger *slog.Logger) func() {
	if delays == nil {
		delays = DefaultRefetchDelays
	}
	if logger == nil {
		logger = slog.Default()
	}

	return bus.Subscribe(event, func(detail string) {
		logger.Debug("bus event", "event", event, "detail", detail)
		for _, d := range delays {
			timer := time.NewTimer(d)
			go func() {
				defer timer.Stop()
				select {
				case <-ctx.Done():
					return
				case <-timer.C:
					for _, key := range keys {
						c.Invalidate(ctx, key)
					}
				}
			}()
		}
	})
}
