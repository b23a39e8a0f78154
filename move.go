package main

import "sort"

// ownedIDs collects the ids that travel with a structure during a move: the
// structure itself, its referenced cells, and for templates every structure
// fully nested inside the footprint along with their referenced cells.
func (st *GridState) ownedIDs(s *Structure) map[string]bool {
	owned := map[string]bool{s.ID: true}
	if s.isContainer() {
		for _, id := range s.referencedIDs() {
			owned[id] = true
		}
	}
	if s.Kind == KindTemplate {
		for _, other := range st.Structures {
			if other.ID == s.ID || !s.ContainsFootprint(other.Origin, other.Dims) {
				continue
			}
			owned[other.ID] = true
			if other.isContainer() {
				for _, id := range other.referencedIDs() {
					owned[id] = true
				}
			}
		}
	}
	return owned
}

// isValidMoveTarget enforces the overlap rules for placing s's footprint at
// target. Overlaps the operation can resolve (consuming a fully covered
// standalone cell, absorbing a loose cell into a container) pass; overlaps
// that would persist are rejected:
//   - nothing may overlap a Template and a Template may overlap nothing;
//   - a Table/Array may not land on another Table/Array;
//   - a container may not land on a merged or partially covered cell;
//   - a merged cell may not land inside a container;
//   - a cell may not land on a cell it does not fully cover;
//   - a merged cell body may not cover a valued cell away from its origin,
//     since the body renders empty and would hide the value.
func (st *GridState) isValidMoveTarget(s *Structure, target Position, dims Dimensions) error {
	if !inBounds(target, dims) {
		return ErrOutOfBounds
	}
	owned := st.ownedIDs(s)
	targetFootprint := &Structure{Origin: target, Dims: dims}
	var err error
	eachPosition(target, dims, func(p Position) {
		if err != nil {
			return
		}
		for _, occID := range st.Index.idsAt(p) {
			if owned[occID] {
				continue
			}
			occ, ok := st.Structures[occID]
			if !ok {
				continue
			}
			if occ.Kind == KindTemplate || s.Kind == KindTemplate {
				err = ErrInvalidTarget
				return
			}
			switch s.Kind {
			case KindTable, KindArray:
				if occ.isContainer() {
					err = ErrInvalidTarget
					return
				}
				if occ.Kind == KindCell {
					if occ.Dims.Area() > 1 || !targetFootprint.ContainsFootprint(occ.Origin, occ.Dims) {
						err = ErrInvalidTarget
						return
					}
				}
			case KindCell:
				if occ.isContainer() && s.Dims.Area() > 1 {
					err = ErrInvalidTarget
					return
				}
				if occ.Kind == KindCell {
					if !targetFootprint.ContainsFootprint(occ.Origin, occ.Dims) {
						err = ErrInvalidTarget
						return
					}
					if occ.Value != "" && occ.Origin != target {
						err = ErrInvalidTarget
						return
					}
				}
			}
		}
	})
	return err
}

// MoveStructure relocates a structure to targetOrigin. It returns the new
// state on success; a non-nil error means the target was rejected and the
// prior state stands. When unresolved content conflicts exist and overwrite
// is false the move is blocked: the conflicts come back with a nil state and
// the caller decides before retrying.
func (st *GridState) MoveStructure(id string, target Position, overwrite bool) (*GridState, []Conflict, error) {
	src, ok := st.Structures[id]
	if !ok {
		return nil, nil, ErrStructureNotFound
	}
	if target == src.Origin {
		return st, nil, nil
	}
	if err := st.isValidMoveTarget(src, target, src.Dims); err != nil {
		return nil, nil, err
	}
	if conflicts := st.DetectConflicts(src, target); len(conflicts) > 0 && !overwrite {
		return nil, conflicts, nil
	}

	ns := st.clone()
	ns.moveOne(id, target.Row-src.Origin.Row, target.Col-src.Origin.Col, overwrite, nil)
	return ns, nil, nil
}

type slotContent struct {
	occupied bool
	value    string
}

// moveOne performs the actual relocation inside an already-cloned state.
// Containers are rebuilt with fresh interior cells carrying the source
// values; templates recurse over their nested structures with the same
// delta. exempt carries the full owned set of an enclosing template through
// the recursion: siblings that have not moved yet may sit inside this
// structure's destination footprint and must not be cleared as occupants.
func (ns *GridState) moveOne(id string, dRow, dCol int, overwrite bool, exempt map[string]bool) {
	s := ns.Structures[id]
	target := Position{Row: s.Origin.Row + dRow, Col: s.Origin.Col + dCol}
	owned := ns.ownedIDs(s)
	for other := range exempt {
		owned[other] = true
	}

	// Nested structures must be collected against the old footprint, before
	// the template's origin changes. Cells referenced by a nested container
	// travel with that container, not on their own.
	var nested []*Structure
	if s.Kind == KindTemplate {
		referenced := make(map[string]bool)
		var candidates []*Structure
		for _, other := range ns.Structures {
			if other.ID == s.ID || !s.ContainsFootprint(other.Origin, other.Dims) {
				continue
			}
			candidates = append(candidates, other)
			if other.isContainer() {
				for _, ref := range other.referencedIDs() {
					referenced[ref] = true
				}
			}
		}
		for _, c := range candidates {
			if !referenced[c.ID] {
				nested = append(nested, c)
			}
		}
		sort.Slice(nested, func(i, j int) bool { return nested[i].ID < nested[j].ID })
	}

	// Snapshot the container interior keyed by destination coordinate.
	srcSlots := make(map[Position]slotContent)
	if s.isContainer() {
		eachPosition(s.Origin, s.Dims, func(p Position) {
			cellID := s.slotAt(p)
			if cellID == "" {
				return
			}
			dest := Position{Row: p.Row + dRow, Col: p.Col + dCol}
			if cell, ok := ns.Structures[cellID]; ok {
				srcSlots[dest] = slotContent{occupied: true, value: cell.Value}
			}
		})
	}

	// Detach the source footprint. Interior cells are not independently
	// re-added; fresh cells are created at the destination.
	ns.Index.removeFromIndex(s)
	if s.isContainer() {
		for _, cellID := range s.referencedIDs() {
			if cell, ok := ns.Structures[cellID]; ok {
				ns.Index.removeFromIndex(cell)
				delete(ns.Structures, cellID)
			}
		}
	}
	if s.Kind == KindCell {
		if parent := ns.containerOf(s.ID); parent != nil {
			parent.clearSlotsFor(s.ID)
		}
	}

	// Clear the destination: structures fully covered by the new footprint
	// are consumed, their values re-parented through the merge policy, and
	// any third-party container slot referencing them nulled.
	destSlots := make(map[Position]slotContent)
	var absorb *Structure
	eachPosition(target, s.Dims, func(p Position) {
		ids := append([]string(nil), ns.Index.idsAt(p)...)
		for _, occID := range ids {
			if owned[occID] {
				continue
			}
			occ, ok := ns.Structures[occID]
			if !ok {
				continue
			}
			switch {
			case occ.Kind == KindCell:
				destSlots[occ.Origin] = slotContent{occupied: true, value: occ.Value}
				ns.remove(occ.ID)
			case occ.isContainer() && s.Kind == KindCell:
				absorb = occ
			}
		}
	})

	switch s.Kind {
	case KindCell:
		s.Origin = target
		if dv, ok := destSlots[target]; ok {
			s.Value = mergeValue(dv.value, s.Value, overwrite)
		}
		ns.Index.addToIndex(s)
		if absorb != nil {
			if existingID := absorb.slotAt(target); existingID != "" && existingID != s.ID {
				if existing, ok := ns.Structures[existingID]; ok {
					s.Value = mergeValue(existing.Value, s.Value, overwrite)
					ns.remove(existingID)
				}
			}
			absorb.setSlot(target, s.ID)
		}

	case KindTable, KindArray:
		s.Origin = target
		eachPosition(target, s.Dims, func(p Position) {
			sv := srcSlots[p]
			dv := destSlots[p]
			if !sv.occupied && !dv.occupied {
				s.setSlot(p, "")
				return
			}
			cell, _ := NewCell(p, Dimensions{Rows: 1, Cols: 1}, mergeValue(dv.value, sv.value, overwrite))
			ns.insert(cell)
			s.setSlot(p, cell.ID)
		})
		ns.Index.addToIndex(s)

	case KindTemplate:
		// Overrides are keyed relative to the origin: moving the footprint
		// is a pure coordinate transform.
		s.Origin = target
		ns.Index.addToIndex(s)
		for _, n := range nested {
			ns.moveOne(n.ID, dRow, dCol, overwrite, owned)
		}
	}
}
