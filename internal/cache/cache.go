// Package cache implements the process-wide query cache: a keyed store of
// fetched collections supporting invalidate-and-refetch and direct
// optimistic mutation of cached entries.
//
// The cache never rolls an optimistic write back. A failed mutation is
// followed by Invalidate, so the UI reconverges to server truth via a fresh
// fetch rather than to the optimistic guess. Entries live for the process
// lifetime; they are invalidated, never evicted.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thinkable-app/thinkable-go/internal/metrics"
)

// Fetcher loads the authoritative value for a key from the remote service.
type Fetcher func(ctx context.Context) (any, error)

// Updater transforms a cached value in place of server confirmation.
// It must treat the input as immutable and return a fresh value.
type Updater func(current any) any

type entry struct {
	fetch      Fetcher
	value      any
	loaded     bool
	stale      bool
	generation uint64
	subs       map[int]func(any)
	nextSubID  int
}

// Cache is a keyed store of fetched collections. All methods are safe for
// concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New creates an empty cache. logger may be nil, as may the collector.
func New(logger *slog.Logger, mc *metrics.Collector) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*entry),
		logger:  logger,
		metrics: mc,
	}
}

// Register binds a fetcher to a key. Registering an existing key replaces
// its fetcher but keeps any cached value.
func (c *Cache) Register(key string, fetch Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.ensure(key)
	e.fetch = fetch
}

// ensure returns the entry for key, creating it if needed. Caller holds mu.
func (c *Cache) ensure(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]func(any))}
		c.entries[key] = e
	}
	return e
}

// Get returns the cached value for key, fetching it first if the entry is
// missing or stale.
func (c *Cache) Get(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("cache: no fetcher registered for key %q", key)
	}
	if e.loaded && !e.stale {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	return c.refetch(ctx, key)
}

// refetch loads the key and writes the result back unless a newer fetch
// started in the meantime. Late responses lose by generation, so a fetch
// that outlives its component simply has its write discarded.
func (c *Cache) refetch(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("cache: no fetcher registered for key %q", key)
	}
	e.generation++
	gen := e.generation
	fetch := e.fetch
	c.mu.Unlock()

	start := time.Now()
	value, err := fetch(ctx)
	c.metrics.RecordOp(metrics.OpCacheFetch, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("cache: fetch %q: %w", key, err)
	}

	c.mu.Lock()
	if e.generation != gen {
		// A newer fetch superseded this one; its result is (or will be)
		// the truth. Discard ours and hand back the freshest value known.
		current, loaded := e.value, e.loaded
		c.mu.Unlock()
		if loaded {
			return current, nil
		}
		return value, nil
	}
	e.value = value
	e.loaded = true
	e.stale = false
	subs := snapshotSubs(e)
	c.mu.Unlock()

	notify(subs, value)
	return value, nil
}

// Invalidate marks the key stale and, if anything observes it, refetches
// immediately so subscribers converge to server truth. Safe to call
// redundantly: a second invalidation of an already-fresh entry just costs
// one extra fetch.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e.stale = true
	hasSubs := len(e.subs) > 0
	c.mu.Unlock()

	if !hasSubs {
		// Lazy: next Get pays for the refetch.
		return
	}
	if _, err := c.refetch(ctx, key); err != nil {
		// Entry stays stale; the next Get or Invalidate retries.
		c.logger.Warn("cache refetch after invalidate failed", "key", key, "error", err)
	}
}

// SetOptimistic applies a pure transform to the cached value immediately,
// before server confirmation, and notifies subscribers. A key that has
// never been fetched is left alone: there is nothing on screen to patch.
func (c *Cache) SetOptimistic(key string, update Updater) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.loaded {
		c.mu.Unlock()
		return
	}
	e.value = update(e.value)
	value := e.value
	subs := snapshotSubs(e)
	c.mu.Unlock()

	notify(subs, value)
}

// Subscribe registers a callback invoked with every new value for key.
// The returned function unsubscribes.
func (c *Cache) Subscribe(key string, cb func(any)) func() {
	c.mu.Lock()
	e := c.ensure(key)
	id := e.nextSubID
	e.nextSubID++
	e.subs[id] = cb
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(e.subs, id)
		c.mu.Unlock()
	}
}

// Peek returns the cached value without fetching. ok is false when the key
// has never loaded.
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found || !e.loaded {
		return nil, false
	}
	return e.value, true
}

// Mutate runs the standard write pattern every sidebar mutation follows:
// optimistic patch, then the remote call, then invalidate+refetch no matter
// how the call went. On failure the caller gets the error to surface to the
// user, and the refetch has already replaced the optimistic guess.
func (c *Cache) Mutate(ctx context.Context, key string, optimistic Updater, remote func(context.Context) error) error {
	if optimistic != nil {
		c.SetOptimistic(key, optimistic)
	}
	err := remote(ctx)
	c.Invalidate(ctx, key)
	if err != nil {
		return fmt.Errorf("mutate %q: %w", key, err)
	}
	return nil
}

func snapshotSubs(e *entry) []func(any) {
	subs := make([]func(any), 0, len(e.subs))
	for _, cb := range e.subs {
		subs = append(subs, cb)
	}
	return subs
}

func notify(subs []func(any), value any) {
	for _, cb := range subs {
		cb(value)
	}
}
