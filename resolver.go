package main

// CellValueAt computes the displayed value at p. The cascade short-circuits
// on the first applicable rule:
//  1. a template override recorded at the relative coordinate (may be "");
//  2. a cell present at p: its value at the origin, "" inside a merged body;
//  3. a table's grid slot, falling back to a standalone cell not yet linked;
//  4. the same for an array along its direction;
//  5. empty string.
func (st *GridState) CellValueAt(p Position) string {
	hier := st.StructuresAt(p)

	for _, s := range hier {
		if s.Kind != KindTemplate {
			continue
		}
		key := relKey(p.Row-s.Origin.Row, p.Col-s.Origin.Col)
		if v, ok := s.Overrides[key]; ok {
			return v
		}
	}

	for _, s := range hier {
		if s.Kind != KindCell {
			continue
		}
		if p == s.Origin {
			return s.Value
		}
		return ""
	}

	for _, s := range hier {
		if s.Kind != KindTable && s.Kind != KindArray {
			continue
		}
		if id := s.slotAt(p); id != "" {
			if cell, ok := st.Structures[id]; ok {
				return cell.Value
			}
			continue
		}
		// Empty slot: a cell occupying exactly this coordinate that has not
		// been linked into the grid still renders.
		if cell := st.standaloneCellAt(p); cell != nil {
			return cell.Value
		}
	}

	return ""
}
