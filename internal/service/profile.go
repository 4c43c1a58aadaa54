package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/thinkable-app/thinkable-go/internal/db"
	"github.com/thinkable-app/thinkable-go/internal/models"
)

// ProfileService manages the per-user profile row: study sets and the
// theme preference, both stored in profile metadata.
//
// Study sets are one JSON array replaced wholesale on every edit, so two
// devices editing concurrently resolve last-write-wins over the whole
// array. Acceptable for a personal list edited from one device at a time.
type ProfileService struct {
	db     *db.Client
	logger *slog.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(dbc *db.Client, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{db: dbc, logger: logger}
}

// Ensure returns the owner's profile, creating it on first sign-in.
func (s *ProfileService) Ensure(ctx context.Context, owner, email string) (*models.Profile, error) {
	profile, err := s.db.QueryEnsureProfile(ctx, owner, email)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return profile, nil
}

// Get returns the owner's profile.
func (s *ProfileService) Get(ctx context.Context, owner string) (*models.Profile, error) {
	return s.db.QueryGetProfile(ctx, owner)
}

// AddStudySet appends a study set and returns it.
func (s *ProfileService) AddStudySet(ctx context.Context, owner, name string) (*models.StudySet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("study set name must not be empty")
	}

	sets, err := s.studySets(ctx, owner)
	if err != nil {
		return nil, err
	}

	set := models.StudySet{ID: uuid.NewString(), Name: name}
	sets = append(sets, set)
	if err := s.db.QueryReplaceStudySets(ctx, owner, sets); err != nil {
		return nil, fmt.Errorf("add study set: %w", err)
	}
	return &set, nil
}

// RenameStudySet renames one study set by id.
func (s *ProfileService) RenameStudySet(ctx context.Context, owner, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("study set name must not be empty")
	}

	sets, err := s.studySets(ctx, owner)
	if err != nil {
		return err
	}

	found := false
	for i := range sets {
		if sets[i].ID == id {
			sets[i].Name = name
			found = true
			break
		}
	}
	if !found {
		return db.ErrNotFound
	}
	if err := s.db.QueryReplaceStudySets(ctx, owner, sets); err != nil {
		return fmt.Errorf("rename study set: %w", err)
	}
	return nil
}

// RemoveStudySet deletes one study set by id. Removing a missing set is
// not an error.
func (s *ProfileService) RemoveStudySet(ctx context.Context, owner, id string) error {
	sets, err := s.studySets(ctx, owner)
	if err != nil {
		return err
	}

	kept := sets[:0]
	for _, set := range sets {
		if set.ID != id {
			kept = append(kept, set)
		}
	}
	if len(kept) == len(sets) {
		return nil
	}
	if err := s.db.QueryReplaceStudySets(ctx, owner, kept); err != nil {
		return fmt.Errorf("remove study set: %w", err)
	}
	return nil
}

// SetTheme persists the theme preference.
func (s *ProfileService) SetTheme(ctx context.Context, owner, theme string) error {
	switch theme {
	case models.ThemeLight, models.ThemeDark, models.ThemeSystem:
	default:
		return fmt.Errorf("unknown theme %q", theme)
	}
	if err := s.db.QueryMergeProfileMeta(ctx, owner, models.Meta{models.MetaTheme: theme}); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	return nil
}

func (s *ProfileService) studySets(ctx context.Context, owner string) ([]models.StudySet, error) {
	profile, err := s.db.QueryGetProfile(ctx, owner)
	if errors.Is(err, db.ErrNotFound) {
		profile, err = s.db.QueryEnsureProfile(ctx, owner, "")
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile.Metadata.StudySets(), nil
}
