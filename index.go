package main

// PositionIndex maps each grid coordinate to the ordered, deduplicated list
// of structure ids occupying it. It is a derived view of the store: callers
// must removeFromIndex before changing a footprint and addToIndex after, so
// the index never carries stale entries.
type PositionIndex map[Position][]string

// addToIndex records the structure's id at every coordinate of its
// footprint. O(area). Adding an id already present at a coordinate is a
// no-op for that coordinate.
func (idx PositionIndex) addToIndex(s *Structure) {
	eachPosition(s.Origin, s.Dims, func(p Position) {
		ids := idx[p]
		for _, id := range ids {
			if id == s.ID {
				return
			}
		}
		idx[p] = append(ids, s.ID)
	})
}

// removeFromIndex drops the structure's id from every coordinate of its
// footprint, deleting entries that become empty.
func (idx PositionIndex) removeFromIndex(s *Structure) {
	eachPosition(s.Origin, s.Dims, func(p Position) {
		ids := idx[p]
		for i, id := range ids {
			if id == s.ID {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(idx, p)
		} else {
			idx[p] = ids
		}
	})
}

// idsAt returns the ids occupying p in insertion order. The returned slice
// is the index's own backing array; callers must not mutate it.
func (idx PositionIndex) idsAt(p Position) []string {
	return idx[p]
}

func (idx PositionIndex) clone() PositionIndex {
	cp := make(PositionIndex, len(idx))
	for p, ids := range idx {
		cp[p] = append([]string(nil), ids...)
	}
	return cp
}
