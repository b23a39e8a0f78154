package main

import (
	"fmt"
	"sort"
)

// GridState is the structure store plus its derived position index. Mutating
// operations clone the state and return the new one; a rejected operation
// leaves the receiver untouched, so callers adopt results by swapping their
// held reference.
type GridState struct {
	Structures map[string]*Structure `json:"structures"`
	Index      PositionIndex         `json:"-"`
}

func NewGridState() *GridState {
	return &GridState{
		Structures: make(map[string]*Structure),
		Index:      make(PositionIndex),
	}
}

func (st *GridState) clone() *GridState {
	cp := &GridState{
		Structures: make(map[string]*Structure, len(st.Structures)),
		Index:      st.Index.clone(),
	}
	for id, s := range st.Structures {
		cp.Structures[id] = s.clone()
	}
	return cp
}

// insert registers a structure in the store and index.
func (st *GridState) insert(s *Structure) {
	st.Structures[s.ID] = s
	st.Index.addToIndex(s)
}

// remove deletes a structure from the store and index and nulls any
// container slot still referencing it, in the same update.
func (st *GridState) remove(id string) {
	s, ok := st.Structures[id]
	if !ok {
		return
	}
	st.Index.removeFromIndex(s)
	delete(st.Structures, id)
	for _, other := range st.Structures {
		if other.isContainer() {
			other.clearSlotsFor(id)
		}
	}
}

// StructuresAt returns the structures covering p ordered outermost to
// innermost (template, table, array, cell; larger footprints first on ties).
func (st *GridState) StructuresAt(p Position) []*Structure {
	ids := st.Index.idsAt(p)
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Structure, 0, len(ids))
	for _, id := range ids {
		if s, ok := st.Structures[id]; ok {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := depthRank(out[i].Kind), depthRank(out[j].Kind)
		if ri != rj {
			return ri < rj
		}
		ai, aj := out[i].Dims.Area(), out[j].Dims.Area()
		if ai != aj {
			return ai > aj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// StructureAt returns the outermost structure at p, or nil.
func (st *GridState) StructureAt(p Position) *Structure {
	hier := st.StructuresAt(p)
	if len(hier) == 0 {
		return nil
	}
	return hier[0]
}

// IsTableHeader reports whether p falls inside the header band of a table.
func (st *GridState) IsTableHeader(p Position) bool {
	for _, s := range st.StructuresAt(p) {
		if s.Kind != KindTable {
			continue
		}
		relRow := p.Row - s.Origin.Row
		relCol := p.Col - s.Origin.Col
		if relRow < s.HeaderRows || relCol < s.HeaderCols {
			return true
		}
	}
	return false
}

// checkConsistency verifies the index invariant both ways: every stored
// footprint coordinate carries the structure's id, and every indexed id
// belongs to a stored structure covering that coordinate.
func (st *GridState) checkConsistency() error {
	for id, s := range st.Structures {
		var missing *Position
		eachPosition(s.Origin, s.Dims, func(p Position) {
			if missing != nil {
				return
			}
			found := false
			for _, got := range st.Index.idsAt(p) {
				if got == id {
					found = true
					break
				}
			}
			if !found {
				q := p
				missing = &q
			}
		})
		if missing != nil {
			return fmt.Errorf("structure %s (%s) not indexed at %d,%d", id, s.Kind, missing.Row, missing.Col)
		}
	}
	for p, ids := range st.Index {
		for _, id := range ids {
			s, ok := st.Structures[id]
			if !ok {
				return fmt.Errorf("index at %d,%d references unknown structure %s", p.Row, p.Col, id)
			}
			if !s.Contains(p) {
				return fmt.Errorf("index at %d,%d references %s whose footprint does not cover it", p.Row, p.Col, id)
			}
		}
	}
	return nil
}

// containerOf returns the container whose slot references the given cell id,
// or nil when the cell is standalone.
func (st *GridState) containerOf(cellID string) *Structure {
	for _, s := range st.Structures {
		if !s.isContainer() {
			continue
		}
		for _, ref := range s.referencedIDs() {
			if ref == cellID {
				return s
			}
		}
	}
	return nil
}

// standaloneCellAt returns a 1x1 cell occupying exactly p that no container
// references, or nil.
func (st *GridState) standaloneCellAt(p Position) *Structure {
	for _, s := range st.StructuresAt(p) {
		if s.Kind != KindCell {
			continue
		}
		if s.Dims.Rows != 1 || s.Dims.Cols != 1 {
			continue
		}
		if st.containerOf(s.ID) == nil {
			return s
		}
	}
	return nil
}
