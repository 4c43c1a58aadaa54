package models

// Metadata key names used across conversations, projects, messages and profiles.
const (
	MetaProjectID       = "project_id"
	MetaPosition        = "position"
	MetaArchived        = "archived"
	MetaManuallyRenamed = "manuallyRenamed"
	MetaBookmarked      = "bookmarked"
	MetaStudySets       = "study_sets"
	MetaTheme           = "theme"
)

// Meta is a free-form key/value map stored on a row.
// All accessors tolerate missing keys and wrong value types: a missing or
// malformed key reads as the zero value. CBOR decoding may deliver numbers
// as int64, uint64 or float64 depending on how they were written, so the
// numeric accessors normalize all three.
type Meta map[string]any

// ProjectID returns the project back-reference, if set.
func (m Meta) ProjectID() (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[MetaProjectID].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Position returns the sort key, if set.
func (m Meta) Position() (int, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[MetaPosition].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool returns the boolean stored under key, false when absent.
func (m Meta) Bool(key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

// Archived reports whether the row is archived.
func (m Meta) Archived() bool { return m.Bool(MetaArchived) }

// ManuallyRenamed reports whether the user renamed the row themselves,
// which blocks auto-titling from overwriting the title.
func (m Meta) ManuallyRenamed() bool { return m.Bool(MetaManuallyRenamed) }

// Bookmarked reports whether a message is bookmarked.
func (m Meta) Bookmarked() bool { return m.Bool(MetaBookmarked) }

// Clone returns a shallow copy, never nil. Mutating the copy leaves the
// original untouched, which optimistic cache patches rely on.
func (m Meta) Clone() Meta {
	out := make(Meta, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// With returns a copy with key set to value.
func (m Meta) With(key string, value any) Meta {
	out := m.Clone()
	out[key] = value
	return out
}

// Without returns a copy with key removed.
func (m Meta) Without(key string) Meta {
	out := m.Clone()
	delete(out, key)
	return out
}
