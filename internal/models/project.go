package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Project groups boards in the sidebar. Deleting a project does not cascade
// to its boards; they simply stop matching any project.
type Project struct {
	ID        surrealmodels.RecordID `json:"id"`
	Name      string                 `json:"name"`
	Owner     string                 `json:"owner"`
	Metadata  Meta                   `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}
