package main

// clampArrayResize keeps an array one-dimensional: a horizontal array must
// stay exactly one row tall, a vertical one exactly one column wide. A
// resize that would violate this clamps the offending dimension back to the
// original edge instead of failing.
func clampArrayResize(s *Structure, origin Position, dims Dimensions) (Position, Dimensions) {
	if s.Kind != KindArray {
		return origin, dims
	}
	if s.Dir == Horizontal && dims.Rows != 1 {
		origin.Row = s.Origin.Row
		dims.Rows = 1
	}
	if s.Dir == Vertical && dims.Cols != 1 {
		origin.Col = s.Origin.Col
		dims.Cols = 1
	}
	return origin, dims
}

// ResizeStructure changes a structure's footprint to (newOrigin, newDims).
// Newly covered container slots reuse the cell already there, absorb a
// standalone cell, or materialize a fresh cell when the grid resolves a
// non-empty value at that coordinate. Released slots orphan their backing
// cell at its last absolute position when it holds a value; valueless cells
// are dropped. No value is ever silently lost by a resize.
func (st *GridState) ResizeStructure(id string, newOrigin Position, newDims Dimensions) (*GridState, error) {
	src, ok := st.Structures[id]
	if !ok {
		return nil, ErrStructureNotFound
	}
	if newDims.Rows < 1 || newDims.Cols < 1 {
		return nil, ErrInvalidDimensions
	}
	newOrigin, newDims = clampArrayResize(src, newOrigin, newDims)
	if newOrigin == src.Origin && newDims == src.Dims {
		return st, nil
	}
	if err := st.isValidMoveTarget(src, newOrigin, newDims); err != nil {
		return nil, err
	}

	ns := st.clone()
	s := ns.Structures[id]

	switch s.Kind {
	case KindCell:
		// Growing or shrinking a merged cell only changes the footprint; the
		// value stays authoritative at the origin. Empty standalone cells
		// under the new footprint are consumed; ones holding a value block
		// the resize, since a merged body would silently hide them.
		owned := ns.ownedIDs(s)
		var blocked bool
		eachPosition(newOrigin, newDims, func(p Position) {
			if blocked {
				return
			}
			for _, occID := range append([]string(nil), ns.Index.idsAt(p)...) {
				if owned[occID] {
					continue
				}
				occ, ok := ns.Structures[occID]
				if !ok || occ.Kind != KindCell {
					continue
				}
				if occ.Value != "" {
					blocked = true
					return
				}
				ns.remove(occID)
			}
		})
		if blocked {
			return nil, ErrInvalidTarget
		}
		ns.Index.removeFromIndex(s)
		s.Origin = newOrigin
		s.Dims = newDims
		ns.Index.addToIndex(s)

	case KindTemplate:
		ns.Index.removeFromIndex(s)
		s.Origin = newOrigin
		s.Dims = newDims
		for key := range s.Overrides {
			r, c, ok := parseRelKey(key)
			if !ok || r >= newDims.Rows || c >= newDims.Cols {
				delete(s.Overrides, key)
			}
		}
		ns.Index.addToIndex(s)

	case KindTable, KindArray:
		ns.resizeContainer(s, newOrigin, newDims)
	}

	return ns, nil
}

// resizeContainer rebuilds a table's or array's interior for a new
// footprint. Cells are addressed by absolute coordinate: a coordinate
// covered by both the old and new footprint keeps its cell in place.
func (ns *GridState) resizeContainer(s *Structure, newOrigin Position, newDims Dimensions) {
	oldOrigin, oldDims := s.Origin, s.Dims

	oldCells := make(map[Position]string)
	eachPosition(oldOrigin, oldDims, func(p Position) {
		if cellID := s.slotAt(p); cellID != "" {
			oldCells[p] = cellID
		}
	})

	ns.Index.removeFromIndex(s)
	s.Origin = newOrigin
	s.Dims = newDims
	if s.Kind == KindTable {
		grid := make([][]string, newDims.Rows)
		for r := range grid {
			grid[r] = make([]string, newDims.Cols)
		}
		s.Grid = grid
		if s.HeaderRows > newDims.Rows {
			s.HeaderRows = newDims.Rows
		}
		if s.HeaderCols > newDims.Cols {
			s.HeaderCols = newDims.Cols
		}
	} else {
		length := newDims.Cols
		if s.Dir == Vertical {
			length = newDims.Rows
		}
		s.CellIDs = make([]string, length)
	}

	eachPosition(newOrigin, newDims, func(p Position) {
		if cellID, had := oldCells[p]; had {
			s.setSlot(p, cellID)
			delete(oldCells, p)
			return
		}
		if cell := ns.standaloneCellAt(p); cell != nil {
			s.setSlot(p, cell.ID)
			return
		}
		if v := ns.CellValueAt(p); v != "" {
			cell, _ := NewCell(p, Dimensions{Rows: 1, Cols: 1}, v)
			ns.insert(cell)
			s.setSlot(p, cell.ID)
		}
	})
	ns.Index.addToIndex(s)

	// Whatever is left in oldCells fell outside the new footprint. Cells
	// holding content are released back onto the grid as standalone cells at
	// their last absolute position; empty ones are dropped.
	for _, cellID := range oldCells {
		cell, ok := ns.Structures[cellID]
		if !ok {
			continue
		}
		if cell.Value == "" {
			ns.remove(cellID)
		}
	}
}
