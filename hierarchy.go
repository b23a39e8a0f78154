package main

// Selection is the layered click state machine. Repeated clicks at the same
// coordinate descend through the hierarchy of overlapping structures; the
// click after the deepest layer starts text editing instead of advancing.
type Selection struct {
	ActiveLevel int       `json:"active_level"`
	LastClicked *Position `json:"last_clicked,omitempty"`
	SelectedID  string    `json:"selected_id,omitempty"`
	Editing     bool      `json:"editing,omitempty"`
}

type ClickResult struct {
	SelectedID string `json:"selected_id,omitempty"`
	Level      int    `json:"level"`
	Editing    bool   `json:"editing,omitempty"`
}

func (sel *Selection) reset() {
	sel.ActiveLevel = 0
	sel.LastClicked = nil
	sel.SelectedID = ""
	sel.Editing = false
}

// Click processes a pointer click at p and returns the resulting selection.
func (sel *Selection) Click(st *GridState, p Position) ClickResult {
	hier := st.StructuresAt(p)
	if len(hier) == 0 {
		sel.reset()
		return ClickResult{}
	}

	samePos := sel.LastClicked != nil && *sel.LastClicked == p
	prevIdx := -1
	for i, s := range hier {
		if s.ID == sel.SelectedID {
			prevIdx = i
			break
		}
	}

	switch {
	case samePos && prevIdx >= 0:
		if sel.ActiveLevel >= len(hier)-1 {
			// Terminal: deepest layer already selected, next click edits.
			sel.ActiveLevel = len(hier) - 1
			sel.SelectedID = hier[sel.ActiveLevel].ID
			sel.Editing = true
		} else {
			sel.ActiveLevel++
			sel.SelectedID = hier[sel.ActiveLevel].ID
			sel.Editing = false
		}
	case sel.SelectedID != "" && sel.ActiveLevel < len(hier) && hier[sel.ActiveLevel].ID == sel.SelectedID:
		// Dragging across a multi-cell structure: same structure at the
		// current level, keep the layer.
		sel.Editing = false
	default:
		sel.ActiveLevel = 0
		sel.SelectedID = hier[0].ID
		sel.Editing = false
	}

	clicked := p
	sel.LastClicked = &clicked
	return ClickResult{SelectedID: sel.SelectedID, Level: sel.ActiveLevel, Editing: sel.Editing}
}

type DragKind int

const (
	DragMove DragKind = iota
	DragResize
)

type dragCandidate struct {
	origin Position
	dims   Dimensions
}

// DragSession models a move or resize drag as begin / update / commit with
// implicit cancellation: every pointer position revalidates a candidate and
// only the last valid one is committed, so the visual indicator never lands
// on an illegal cell and a drag that never produced a valid candidate leaves
// state unchanged.
type DragSession struct {
	Kind        DragKind
	StructureID string

	grabRow int // pointer offset inside the footprint at begin (move)
	grabCol int

	lastValid *dragCandidate
}

// BeginMoveDrag captures the dragged structure and the pointer's offset
// inside its footprint.
func BeginMoveDrag(st *GridState, id string, pointer Position) (*DragSession, error) {
	s, ok := st.Structures[id]
	if !ok {
		return nil, ErrStructureNotFound
	}
	return &DragSession{
		Kind:        DragMove,
		StructureID: id,
		grabRow:     pointer.Row - s.Origin.Row,
		grabCol:     pointer.Col - s.Origin.Col,
	}, nil
}

// BeginResizeDrag starts a bottom-right handle resize; the origin stays
// anchored and the pointer drives the opposite corner.
func BeginResizeDrag(st *GridState, id string) (*DragSession, error) {
	if _, ok := st.Structures[id]; !ok {
		return nil, ErrStructureNotFound
	}
	return &DragSession{Kind: DragResize, StructureID: id}, nil
}

// Update recomputes the candidate for the current pointer position and
// records it when valid. It reports whether the pointer currently denotes a
// valid target.
func (d *DragSession) Update(st *GridState, pointer Position) bool {
	s, ok := st.Structures[d.StructureID]
	if !ok {
		return false
	}

	var cand dragCandidate
	switch d.Kind {
	case DragMove:
		cand.origin = Position{Row: pointer.Row - d.grabRow, Col: pointer.Col - d.grabCol}
		cand.dims = s.Dims
	case DragResize:
		cand.origin = s.Origin
		cand.dims = Dimensions{Rows: pointer.Row - s.Origin.Row + 1, Cols: pointer.Col - s.Origin.Col + 1}
		if cand.dims.Rows < 1 || cand.dims.Cols < 1 {
			return false
		}
		cand.origin, cand.dims = clampArrayResize(s, cand.origin, cand.dims)
	}

	if err := st.isValidMoveTarget(s, cand.origin, cand.dims); err != nil {
		return false
	}
	d.lastValid = &cand
	return true
}

// Commit applies the last valid candidate on pointer release. A drag that
// never recorded a valid candidate commits nothing and returns the state
// unchanged.
func (d *DragSession) Commit(st *GridState, overwrite bool) (*GridState, []Conflict, error) {
	if d.lastValid == nil {
		return st, nil, nil
	}
	cand := *d.lastValid
	d.lastValid = nil
	switch d.Kind {
	case DragResize:
		ns, err := st.ResizeStructure(d.StructureID, cand.origin, cand.dims)
		return ns, nil, err
	default:
		return st.MoveStructure(d.StructureID, cand.origin, overwrite)
	}
}

// Cancel discards any recorded candidate.
func (d *DragSession) Cancel() {
	d.lastValid = nil
}
