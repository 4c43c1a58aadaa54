package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Profile is the per-user row. Study sets are embedded in Metadata as an
// array rather than stored as first-class rows, so concurrent edits to the
// set list are last-write-wins over the whole array.
type Profile struct {
	ID        surrealmodels.RecordID `json:"id"`
	Owner     string                 `json:"owner"`
	Email     string                 `json:"email"`
	Metadata  Meta                   `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// StudySet is one entry of the profile's study_sets array.
type StudySet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StudySets decodes the study_sets array from profile metadata.
// Entries that are not {id, name} objects are skipped.
func (m Meta) StudySets() []StudySet {
	if m == nil {
		return nil
	}
	raw, ok := m[MetaStudySets].([]any)
	if !ok {
		return nil
	}
	sets := make([]StudySet, 0, len(raw))
	for _, e := range raw {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		id, _ := obj["id"].(string)
		name, _ := obj["name"].(string)
		if id == "" {
			continue
		}
		sets = append(sets, StudySet{ID: id, Name: name})
	}
	return sets
}

// WithStudySets returns a copy of the metadata with the study_sets array
// replaced wholesale.
func (m Meta) WithStudySets(sets []StudySet) Meta {
	raw := make([]any, 0, len(sets))
	for _, s := range sets {
		raw = append(raw, map[string]any{"id": s.ID, "name": s.Name})
	}
	return m.With(MetaStudySets, raw)
}

// Theme returns the persisted theme preference, defaulting to "system".
func (m Meta) Theme() string {
	if m == nil {
		return ThemeSystem
	}
	s, ok := m[MetaTheme].(string)
	if !ok {
		return ThemeSystem
	}
	switch s {
	case ThemeLight, ThemeDark, ThemeSystem:
		return s
	}
	return ThemeSystem
}

// Theme preference values.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)
