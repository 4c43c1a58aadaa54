package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Conversation is a chat session rendered as a board. Project membership
// lives in Metadata under "project_id"; there is no join table.
type Conversation struct {
	ID        surrealmodels.RecordID `json:"id"`
	Title     string                 `json:"title"`
	Owner     string                 `json:"owner"`
	Metadata  Meta                   `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Message is a single chat message within a conversation.
type Message struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Owner        string                 `json:"owner"`
	Role         string                 `json:"role"`
	Content      string                 `json:"content"`
	Metadata     Meta                   `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
