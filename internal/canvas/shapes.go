// Package canvas implements the board canvas's drawing tool state: the
// shape tool's pointer gesture machine, the node list with zero-crossing
// notification, and the auto-fit text sizing search.
package canvas

import (
	"math"

	"github.com/google/uuid"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/thinkable-app/thinkable-go/internal/models"
)

// MinShapeSize is the smallest dimension a drawn shape may have. A gesture
// below it in either dimension is an accidental click, not a shape.
const MinShapeSize = 10.0

// Point is a position in canvas coordinates.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle with its top-left corner at X, Y.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// rectBetween spans the two points: min corner, absolute deltas.
func rectBetween(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// ShapeTool turns a pointer-down/move/up gesture into one shape node.
// The zero value is an idle tool with an empty style.
type ShapeTool struct {
	Style models.NodeStyle

	active bool
	start  Point
	cur    Point
}

// Drawing reports whether a gesture is in progress.
func (t *ShapeTool) Drawing() bool {
	return t.active
}

// PointerDown starts a gesture at p.
func (t *ShapeTool) PointerDown(p Point) {
	t.active = true
	t.start = p
	t.cur = p
}

// PointerMove extends the gesture. Ignored when no gesture is active.
func (t *ShapeTool) PointerMove(p Point) {
	if !t.active {
		return
	}
	t.cur = p
}

// Preview returns the rectangle the gesture currently spans, for rendering
// the rubber band while drawing.
func (t *ShapeTool) Preview() (Rect, bool) {
	if !t.active {
		return Rect{}, false
	}
	return rectBetween(t.start, t.cur), true
}

// PointerUp ends the gesture. When the spanned rectangle clears the size
// minimum in both dimensions it appends one node to the list, selects it,
// and returns it; otherwise the gesture is discarded.
func (t *ShapeTool) PointerUp(p Point, list *NodeList, conversation surrealmodels.RecordID, owner string) (models.CanvasNode, bool) {
	if !t.active {
		return models.CanvasNode{}, false
	}
	t.active = false
	t.cur = p

	r := rectBetween(t.start, p)
	if r.Width < MinShapeSize || r.Height < MinShapeSize {
		return models.CanvasNode{}, false
	}

	node := models.CanvasNode{
		ID:           surrealmodels.NewRecordID("canvas_node", uuid.NewString()),
		Conversation: conversation,
		Owner:        owner,
		Kind:         models.NodeKindShape,
		X:            r.X,
		Y:            r.Y,
		Width:        r.Width,
		Height:       r.Height,
		Style:        t.Style,
	}
	list.Append(node)
	list.Select(models.MustRecordIDString(node.ID))
	return node, true
}

// Cancel discards an in-progress gesture.
func (t *ShapeTool) Cancel() {
	t.active = false
}
