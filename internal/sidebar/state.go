// Package sidebar implements the sidebar's display lists and its
// drag-and-drop state machine: a single tagged-union state reduced by a
// pure transition function, so illegal flag combinations are
// unrepresentable.
package sidebar

// Indicator positions for the reorder marker while dragging.
const (
	PosNone   = "none"
	PosAbove  = "above"
	PosBelow  = "below"
	PosTop    = "top"
	PosBottom = "bottom"
)

// Drag modes.
const (
	ModeIdle     = "idle"
	ModeDragging = "dragging"
)

// Drag target kinds.
const (
	TargetBoard   = "board"
	TargetProject = "project"
)

// DragState is the whole drag machine state. In idle mode every other
// field is zero.
type DragState struct {
	Mode string

	// Set while dragging.
	ActiveID string // the board being dragged
	OverID   string // the element currently hovered
	OverPos  string // reorder indicator relative to OverID, or top/bottom of the list
	// OverProjectID is non-empty when hovering a project header or a
	// board inside that project: dropping means reparent into it.
	OverProjectID string
}

// Idle is the initial state.
func Idle() DragState {
	return DragState{Mode: ModeIdle, OverPos: PosNone}
}

// Dragging reports whether a drag is in progress.
func (s DragState) Dragging() bool {
	return s.Mode == ModeDragging
}

// Target describes the element under the pointer during a drag-over.
type Target struct {
	ID   string
	Kind string // TargetBoard or TargetProject
	// ProjectID is the project a board target belongs to, empty for
	// unparented boards. Ignored for project targets.
	ProjectID string
	// Vertical extent of the element in list coordinates.
	Top    float64
	Bottom float64
}

// Midpoint returns the target's vertical center.
func (t Target) Midpoint() float64 {
	return (t.Top + t.Bottom) / 2
}

// ListRect is the vertical extent of the board list, used for the
// top/bottom edge indicator.
type ListRect struct {
	Top    float64
	Bottom float64
}

// Events consumed by Reduce.

// DragStart begins dragging a board.
type DragStart struct {
	BoardID string
}

// PointerMove reports the document-level pointer position while dragging.
// Only the vertical coordinate matters for indicator placement.
type PointerMove struct {
	Y    float64
	List ListRect
}

// DragOver reports the element under the pointer.
type DragOver struct {
	Target   Target
	PointerY float64
}

// DragLeave reports the pointer leaving all drop targets.
type DragLeave struct{}

// Drop ends the drag over a target. TargetID is the drop target reported
// by the drag library, empty when it reported none.
type Drop struct {
	TargetID string
}

// DragCancel aborts the drag with no mutation.
type DragCancel struct{}

// Event is one input to the state machine.
type Event any

// Edge-indicator geometry. The indicator snaps to the list's top or bottom
// when the pointer is within edgeThreshold of that edge. Once shown it
// stays until the pointer retreats past edgeHysteresisNear+edgeHysteresisFar,
// so re-entering the list from an edge cannot flicker it.
const (
	edgeThreshold      = 15.0
	edgeHysteresisNear = 10.0
	edgeHysteresisFar  = 20.0
)
