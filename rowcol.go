package main

// AddRow inserts an empty row into a table or vertical array directly below
// relative row insertAfter, or at the bottom edge when edge is set. The
// footprint grows by one row; referenced cells below the insertion point
// shift down with their slots. Standalone cells already sitting in the newly
// covered band are absorbed.
func (st *GridState) AddRow(id string, insertAfter int, edge bool) (*GridState, error) {
	s, ok := st.Structures[id]
	if !ok {
		return nil, ErrStructureNotFound
	}
	switch {
	case s.Kind == KindTable:
	case s.Kind == KindArray && s.Dir == Vertical:
	default:
		return nil, ErrNotResizable
	}

	insertAt := insertAfter + 1
	if edge {
		insertAt = s.Dims.Rows
	}
	if insertAt < 0 || insertAt > s.Dims.Rows {
		return nil, ErrInvalidTarget
	}

	band := Position{Row: s.Origin.Row + s.Dims.Rows, Col: s.Origin.Col}
	if err := st.isValidMoveTarget(s, band, Dimensions{Rows: 1, Cols: s.Dims.Cols}); err != nil {
		return nil, err
	}

	ns := st.clone()
	s = ns.Structures[id]
	ns.Index.removeFromIndex(s)

	// Shift the displaced cells down one row, slots included.
	for r := s.Dims.Rows - 1; r >= insertAt; r-- {
		for c := 0; c < s.Dims.Cols; c++ {
			ns.shiftCell(s.slotAt(Position{Row: s.Origin.Row + r, Col: s.Origin.Col + c}), 1, 0)
		}
	}
	if s.Kind == KindTable {
		grid := make([][]string, 0, s.Dims.Rows+1)
		grid = append(grid, s.Grid[:insertAt]...)
		grid = append(grid, make([]string, s.Dims.Cols))
		grid = append(grid, s.Grid[insertAt:]...)
		s.Grid = grid
		if insertAt < s.HeaderRows {
			s.HeaderRows++
		}
	} else {
		cells := make([]string, 0, s.Dims.Rows+1)
		cells = append(cells, s.CellIDs[:insertAt]...)
		cells = append(cells, "")
		cells = append(cells, s.CellIDs[insertAt:]...)
		s.CellIDs = cells
	}
	s.Dims.Rows++
	ns.Index.addToIndex(s)

	ns.absorbBand(s, band, Dimensions{Rows: 1, Cols: s.Dims.Cols})
	return ns, nil
}

// AddColumn is the column-wise counterpart of AddRow, for tables and
// horizontal arrays.
func (st *GridState) AddColumn(id string, insertAfter int, edge bool) (*GridState, error) {
	s, ok := st.Structures[id]
	if !ok {
		return nil, ErrStructureNotFound
	}
	switch {
	case s.Kind == KindTable:
	case s.Kind == KindArray && s.Dir == Horizontal:
	default:
		return nil, ErrNotResizable
	}

	insertAt := insertAfter + 1
	if edge {
		insertAt = s.Dims.Cols
	}
	if insertAt < 0 || insertAt > s.Dims.Cols {
		return nil, ErrInvalidTarget
	}

	band := Position{Row: s.Origin.Row, Col: s.Origin.Col + s.Dims.Cols}
	if err := st.isValidMoveTarget(s, band, Dimensions{Rows: s.Dims.Rows, Cols: 1}); err != nil {
		return nil, err
	}

	ns := st.clone()
	s = ns.Structures[id]
	ns.Index.removeFromIndex(s)

	for c := s.Dims.Cols - 1; c >= insertAt; c-- {
		for r := 0; r < s.Dims.Rows; r++ {
			ns.shiftCell(s.slotAt(Position{Row: s.Origin.Row + r, Col: s.Origin.Col + c}), 0, 1)
		}
	}
	if s.Kind == KindTable {
		for r := range s.Grid {
			row := make([]string, 0, s.Dims.Cols+1)
			row = append(row, s.Grid[r][:insertAt]...)
			row = append(row, "")
			row = append(row, s.Grid[r][insertAt:]...)
			s.Grid[r] = row
		}
		if insertAt < s.HeaderCols {
			s.HeaderCols++
		}
	} else {
		cells := make([]string, 0, s.Dims.Cols+1)
		cells = append(cells, s.CellIDs[:insertAt]...)
		cells = append(cells, "")
		cells = append(cells, s.CellIDs[insertAt:]...)
		s.CellIDs = cells
	}
	s.Dims.Cols++
	ns.Index.addToIndex(s)

	ns.absorbBand(s, band, Dimensions{Rows: s.Dims.Rows, Cols: 1})
	return ns, nil
}

// shiftCell relocates a referenced cell by a row/col delta, keeping the
// index in step. The container's slot bookkeeping is handled by the caller.
func (ns *GridState) shiftCell(cellID string, dRow, dCol int) {
	if cellID == "" {
		return
	}
	cell, ok := ns.Structures[cellID]
	if !ok {
		return
	}
	ns.Index.removeFromIndex(cell)
	cell.Origin.Row += dRow
	cell.Origin.Col += dCol
	ns.Index.addToIndex(cell)
}

// absorbBand links standalone cells found inside a newly covered band into
// the container, merging into an already occupied slot.
func (ns *GridState) absorbBand(s *Structure, origin Position, dims Dimensions) {
	eachPosition(origin, dims, func(p Position) {
		cell := ns.standaloneCellAt(p)
		if cell == nil {
			return
		}
		if existingID := s.slotAt(p); existingID != "" {
			if existing, ok := ns.Structures[existingID]; ok {
				existing.Value = mergeValue(cell.Value, existing.Value, false)
			}
			ns.remove(cell.ID)
			return
		}
		s.setSlot(p, cell.ID)
	})
}
