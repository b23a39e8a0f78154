package main

// Conflict reports a destination coordinate whose existing value would
// collide with an incoming one. Conflicts are results, not errors: the
// caller resolves them by retrying the move with overwriteExisting set.
type Conflict struct {
	Position      Position `json:"position"`
	ExistingValue string   `json:"existing_value"`
	NewValue      string   `json:"new_value"`
}

// mergeValue applies the merge policy for a single coordinate: an empty
// source never overwrites existing content, an empty destination always
// accepts the source, and the overwrite flag decides between two non-empty
// values.
func mergeValue(existing, incoming string, overwrite bool) string {
	if existing == "" {
		return incoming
	}
	if incoming == "" {
		return existing
	}
	if overwrite {
		return incoming
	}
	return existing
}

// occupiedValues maps each value-bearing coordinate of a structure to its
// value. For containers this walks the referenced cells; for a merged cell
// only the origin carries the value; for templates the recorded overrides.
func (st *GridState) occupiedValues(s *Structure) map[Position]string {
	vals := make(map[Position]string)
	switch s.Kind {
	case KindCell:
		if s.Value != "" {
			vals[s.Origin] = s.Value
		}
	case KindArray, KindTable:
		eachPosition(s.Origin, s.Dims, func(p Position) {
			id := s.slotAt(p)
			if id == "" {
				return
			}
			if cell, ok := st.Structures[id]; ok && cell.Value != "" {
				vals[p] = cell.Value
			}
		})
	case KindTemplate:
		for key, v := range s.Overrides {
			if v == "" {
				continue
			}
			if r, c, ok := parseRelKey(key); ok {
				vals[Position{Row: s.Origin.Row + r, Col: s.Origin.Col + c}] = v
			}
		}
		// Structures nested inside the template travel with it.
		for _, nested := range st.Structures {
			if nested.ID == s.ID || nested.Kind == KindTemplate {
				continue
			}
			if !s.ContainsFootprint(nested.Origin, nested.Dims) {
				continue
			}
			for p, v := range st.occupiedValues(nested) {
				if _, taken := vals[p]; !taken {
					vals[p] = v
				}
			}
		}
	}
	return vals
}

// DetectConflicts translates every value-bearing coordinate of the source to
// the target footprint and compares against the existing resolved value
// there. Destinations inside the source's own current footprint are skipped:
// overlapping oneself during a move is not a conflict. A conflict is
// recorded only when both values are non-empty and differ.
func (st *GridState) DetectConflicts(s *Structure, target Position) []Conflict {
	deltaRow := target.Row - s.Origin.Row
	deltaCol := target.Col - s.Origin.Col
	srcValues := st.occupiedValues(s)

	var conflicts []Conflict
	eachPosition(s.Origin, s.Dims, func(p Position) {
		dest := Position{Row: p.Row + deltaRow, Col: p.Col + deltaCol}
		if s.Contains(dest) {
			return
		}
		incoming := srcValues[p]
		if incoming == "" {
			return
		}
		existing := st.CellValueAt(dest)
		if existing != "" && existing != incoming {
			conflicts = append(conflicts, Conflict{
				Position:      dest,
				ExistingValue: existing,
				NewValue:      incoming,
			})
		}
	})
	return conflicts
}
