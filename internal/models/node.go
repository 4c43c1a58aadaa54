package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// CanvasNode is a panel on a board canvas: a rendered message, a drawn
// shape, or free text. Position is the node's top-left corner in canvas
// coordinates.
type CanvasNode struct {
	ID           surrealmodels.RecordID `json:"id"`
	Conversation surrealmodels.RecordID `json:"conversation"`
	Owner        string                 `json:"owner"`
	Kind         string                 `json:"kind"`
	X            float64                `json:"x"`
	Y            float64                `json:"y"`
	Width        float64                `json:"width"`
	Height       float64                `json:"height"`
	Style        NodeStyle              `json:"style"`
	Text         string                 `json:"text,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// NodeStyle holds the visual attributes of a drawn node.
type NodeStyle struct {
	Shape        string  `json:"shape,omitempty"`
	Fill         string  `json:"fill,omitempty"`
	BorderColor  string  `json:"border_color,omitempty"`
	BorderWeight float64 `json:"border_weight,omitempty"`
}

// Canvas node kinds.
const (
	NodeKindMessage = "message"
	NodeKindShape   = "shape"
	NodeKindText    = "text"
)
