package main

// DeleteStructure removes a structure from the grid. Deleting a container
// removes its referenced cells with it; deleting a referenced cell nulls the
// container slot in the same update; deleting a template releases its nested
// structures, which stay on the grid.
func (st *GridState) DeleteStructure(id string) (*GridState, error) {
	s, ok := st.Structures[id]
	if !ok {
		return nil, ErrStructureNotFound
	}
	ns := st.clone()
	if s.isContainer() {
		for _, cellID := range s.referencedIDs() {
			ns.remove(cellID)
		}
	}
	ns.remove(id)
	return ns, nil
}

// RenameStructure sets or clears a structure's display name.
func (st *GridState) RenameStructure(id, name string) (*GridState, error) {
	if _, ok := st.Structures[id]; !ok {
		return nil, ErrStructureNotFound
	}
	ns := st.clone()
	ns.Structures[id].Name = name
	return ns, nil
}

// SetCellValue writes a value at a coordinate, following the same cascade as
// the resolver: a template interior records an override, an existing cell
// updates in place, an empty container slot gets a fresh linked cell, and
// bare grid gets a standalone cell. An empty value with nothing there is a
// no-op.
func (st *GridState) SetCellValue(p Position, value string) (*GridState, error) {
	if !inBounds(p, Dimensions{Rows: 1, Cols: 1}) {
		return nil, ErrOutOfBounds
	}
	hier := st.StructuresAt(p)

	for _, s := range hier {
		if s.Kind != KindTemplate {
			continue
		}
		ns := st.clone()
		tpl := ns.Structures[s.ID]
		tpl.Overrides[relKey(p.Row-s.Origin.Row, p.Col-s.Origin.Col)] = value
		return ns, nil
	}

	for _, s := range hier {
		if s.Kind != KindCell {
			continue
		}
		ns := st.clone()
		ns.Structures[s.ID].Value = value
		return ns, nil
	}

	for _, s := range hier {
		if !s.isContainer() {
			continue
		}
		ns := st.clone()
		container := ns.Structures[s.ID]
		if cellID := container.slotAt(p); cellID != "" {
			if cell, ok := ns.Structures[cellID]; ok {
				cell.Value = value
				return ns, nil
			}
		}
		if value == "" {
			return st, nil
		}
		cell, err := NewCell(p, Dimensions{Rows: 1, Cols: 1}, value)
		if err != nil {
			return nil, err
		}
		ns.insert(cell)
		container.setSlot(p, cell.ID)
		return ns, nil
	}

	if value == "" {
		return st, nil
	}
	ns := st.clone()
	cell, err := NewCell(p, Dimensions{Rows: 1, Cols: 1}, value)
	if err != nil {
		return nil, err
	}
	ns.insert(cell)
	return ns, nil
}
