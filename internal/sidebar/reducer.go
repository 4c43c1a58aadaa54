package sidebar

// Mutation kinds produced by a drop.
const (
	MutateNone        = "none"
	MutateReparentIn  = "reparent-in"
	MutateReparentOut = "reparent-out"
	MutateReorder     = "reorder"
)

// Mutation is the persistent effect of a completed drop. None means the
// drop resolved to nothing and no remote call is issued.
type Mutation struct {
	Kind    string
	BoardID string
	// ProjectID is the reparent-in destination.
	ProjectID string
	// Order is the final unparented board order for a reorder; every id
	// in it is persisted a dense 0-based position.
	Order []string
}

// Snapshot is the board/project structure the drop resolution consults.
// It is derived from the query cache at drop time.
type Snapshot struct {
	// ProjectIDs contains every project id.
	ProjectIDs map[string]bool
	// BoardProject maps a board id to its project id, absent or empty
	// for unparented boards.
	BoardProject map[string]string
	// Unparented is the unparented board list in display order.
	Unparented []string
}

func (s Snapshot) isProject(id string) bool {
	return s.ProjectIDs[id]
}

func (s Snapshot) projectOf(board string) string {
	return s.BoardProject[board]
}

// Reduce is the single pure transition function of the drag machine. It
// returns the next state and, for a Drop, the mutation to persist.
func Reduce(state DragState, ev Event, snap Snapshot) (DragState, Mutation) {
	none := Mutation{Kind: MutateNone}

	switch e := ev.(type) {
	case DragStart:
		if e.BoardID == "" {
			return state, none
		}
		return DragState{Mode: ModeDragging, ActiveID: e.BoardID, OverPos: PosNone}, none

	case PointerMove:
		if !state.Dragging() {
			return state, none
		}
		state.OverPos = edgeIndicator(state.OverPos, e)
		return state, none

	case DragOver:
		if !state.Dragging() {
			return state, none
		}
		return applyDragOver(state, e), none

	case DragLeave:
		if !state.Dragging() {
			return state, none
		}
		state.OverID = ""
		state.OverPos = PosNone
		state.OverProjectID = ""
		return state, none

	case Drop:
		if !state.Dragging() {
			return state, none
		}
		m := resolveDrop(state, e, snap)
		return Idle(), m

	case DragCancel:
		return Idle(), none
	}

	return state, none
}

// edgeIndicator computes the list-edge indicator with hysteresis: enter
// within edgeThreshold of an edge, leave only past near+far.
func edgeIndicator(current string, e PointerMove) string {
	distTop := e.Y - e.List.Top
	distBottom := e.List.Bottom - e.Y
	leave := edgeHysteresisNear + edgeHysteresisFar

	switch current {
	case PosTop:
		if distTop > leave {
			return PosNone
		}
		return PosTop
	case PosBottom:
		if distBottom > leave {
			return PosNone
		}
		return PosBottom
	}

	if distTop >= 0 && distTop < edgeThreshold {
		return PosTop
	}
	if distBottom >= 0 && distBottom < edgeThreshold {
		return PosBottom
	}
	return current
}

// applyDragOver tracks the hovered element, the above/below indicator
// relative to its midpoint, and the reparent candidate.
func applyDragOver(state DragState, e DragOver) DragState {
	state.OverID = e.Target.ID

	if e.PointerY < e.Target.Midpoint() {
		state.OverPos = PosAbove
	} else {
		state.OverPos = PosBelow
	}

	switch {
	case e.Target.Kind == TargetProject:
		state.OverProjectID = e.Target.ID
	case e.Target.ProjectID != "":
		// A board already inside a project: dropping joins that project.
		state.OverProjectID = e.Target.ProjectID
	default:
		state.OverProjectID = ""
	}
	return state
}

// resolveDrop picks the drop outcome. Priority order, first match wins:
//  1. the indicator's hovered element is a project
//  2. the library-reported drop target is a project
//  3. the drop target board already belongs to a project
//  4. a reparent candidate was tracked earlier in the drag
//  5. dragged board has a project, target board does not: leave the project
//  6. source and target both unparented: reorder
//
// A drop with no resolvable target, or onto the dragged board itself, is a
// no-op.
func resolveDrop(state DragState, e Drop, snap Snapshot) Mutation {
	none := Mutation{Kind: MutateNone}
	board := state.ActiveID

	if e.TargetID == board {
		return none
	}

	// (1) indicator pointing at a project
	if state.OverID != "" && snap.isProject(state.OverID) {
		return Mutation{Kind: MutateReparentIn, BoardID: board, ProjectID: state.OverID}
	}

	// (2) reported drop target is a project
	if e.TargetID != "" && snap.isProject(e.TargetID) {
		return Mutation{Kind: MutateReparentIn, BoardID: board, ProjectID: e.TargetID}
	}

	// (3) target board already belongs to a project
	if e.TargetID != "" {
		if pid := snap.projectOf(e.TargetID); pid != "" {
			return Mutation{Kind: MutateReparentIn, BoardID: board, ProjectID: pid}
		}
	}

	// (4) tracked reparent candidate
	if state.OverProjectID != "" {
		return Mutation{Kind: MutateReparentIn, BoardID: board, ProjectID: state.OverProjectID}
	}

	// (5) dragging out of a project onto an unparented board
	if snap.projectOf(board) != "" {
		if e.TargetID != "" && snap.projectOf(e.TargetID) == "" {
			return Mutation{Kind: MutateReparentOut, BoardID: board}
		}
		return none
	}

	// (6) reorder within the unparented list
	if e.TargetID != "" && snap.projectOf(e.TargetID) == "" && contains(snap.Unparented, e.TargetID) {
		order := spliceReorder(snap.Unparented, board, e.TargetID)
		if order == nil {
			return none
		}
		return Mutation{Kind: MutateReorder, BoardID: board, Order: order}
	}

	return none
}

// spliceReorder moves active into target's slot, preserving the relative
// order of everything else. Returns nil when either id is missing.
func spliceReorder(list []string, active, target string) []string {
	activeIdx, targetIdx := -1, -1
	for i, id := range list {
		switch id {
		case active:
			activeIdx = i
		case target:
			targetIdx = i
		}
	}
	if activeIdx < 0 || targetIdx < 0 || activeIdx == targetIdx {
		return nil
	}

	out := make([]string, 0, len(list))
	out = append(out, list[:activeIdx]...)
	out = append(out, list[activeIdx+1:]...)

	// Inserting at the target's original index lands the dragged board in
	// the target's slot both when dragging up (target pushed down) and
	// when dragging down (board placed just after the target).
	insert := targetIdx
	if insert > len(out) {
		insert = len(out)
	}

	out = append(out, "")
	copy(out[insert+1:], out[insert:])
	out[insert] = active
	return out
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
