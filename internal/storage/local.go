// Package storage implements the board attachment store. Objects are
// keyed by owner and object id so account deletion can purge everything an
// owner uploaded in one pass.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned by Get and Delete for a missing object.
var ErrObjectNotFound = errors.New("object not found")

// Store is the attachment storage surface the HTTP layer depends on.
type Store interface {
	Put(ctx context.Context, owner, id string, body io.Reader) error
	Get(ctx context.Context, owner, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, owner, id string) error
	// PurgeOwner removes every object the owner has stored.
	PurgeOwner(ctx context.Context, owner string) error
}

// Local is a filesystem-backed Store rooted at a base directory, one
// subdirectory per owner.
type Local struct {
	basePath string
	logger   *slog.Logger
}

// NewLocal creates the store, making the base directory if needed.
// logger may be nil.
func NewLocal(basePath string, logger *slog.Logger) (*Local, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{basePath: basePath, logger: logger}, nil
}

// path validates both key parts and joins them under the base directory.
// Rejecting separators and dot names keeps keys from escaping it.
func (l *Local) path(owner, id string) (string, error) {
	for _, part := range []string{owner, id} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("storage: invalid key part %q", part)
		}
	}
	return filepath.Join(l.basePath, owner, id), nil
}

// Put stores an object, replacing any previous content.
func (l *Local) Put(ctx context.Context, owner, id string, body io.Reader) error {
	p, err := l.path(owner, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create owner directory: %w", err)
	}

	// Write to a temp file and rename, so readers never see a partial
	// object.
	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit object: %w", err)
	}

	l.logger.Debug("object stored", "owner", owner, "id", id, "bytes", written)
	return nil
}

// Get opens an object for reading. The caller closes it.
func (l *Local) Get(ctx context.Context, owner, id string) (io.ReadCloser, error) {
	p, err := l.path(owner, id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

// Delete removes one object.
func (l *Local) Delete(ctx context.Context, owner, id string) error {
	p, err := l.path(owner, id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// PurgeOwner removes the owner's whole directory. Purging an owner with no
// objects is not an error.
func (l *Local) PurgeOwner(ctx context.Context, owner string) error {
	p, err := l.path(owner, "placeholder")
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("purge owner storage: %w", err)
	}
	l.logger.Info("owner storage purged", "owner", owner)
	return nil
}
