package main

import (
	"sort"
	"sync"

	"github.com/mohae/deepcopy"
)

// NestedBlueprint describes one structure inside a template definition,
// positioned relative to the definition's origin. Values holds the occupied
// slots keyed by relative coordinate (a slot may hold an empty value).
type NestedBlueprint struct {
	Kind       Kind              `json:"kind"`
	Offset     Position          `json:"offset"`
	Dims       Dimensions        `json:"dims"`
	Dir        Direction         `json:"dir,omitempty"`
	HeaderRows int               `json:"header_rows,omitempty"`
	HeaderCols int               `json:"header_cols,omitempty"`
	Value      string            `json:"value,omitempty"`
	Values     map[string]string `json:"values,omitempty"`
}

// TemplateDefinition is a reusable snapshot of a grid region: a footprint,
// default overrides, and the blueprints of the structures it contained.
type TemplateDefinition struct {
	Name      string            `json:"name"`
	Version   int               `json:"version"`
	Dims      Dimensions        `json:"dims"`
	Overrides map[string]string `json:"overrides,omitempty"`
	Nested    []NestedBlueprint `json:"nested,omitempty"`
}

// TemplateRegistry stores versioned template definitions by name.
// Definitions are deep-copied in and out so stored blueprints never alias
// live structures or earlier snapshots.
type TemplateRegistry struct {
	mu   sync.RWMutex
	defs map[string][]*TemplateDefinition
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{defs: make(map[string][]*TemplateDefinition)}
}

var globalTemplateRegistry = NewTemplateRegistry()

// Register stores a new version of the named definition and returns the
// assigned version number (1-based, ascending).
func (tr *TemplateRegistry) Register(name string, def *TemplateDefinition) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	cp := deepcopy.Copy(def).(*TemplateDefinition)
	cp.Name = name
	cp.Version = len(tr.defs[name]) + 1
	tr.defs[name] = append(tr.defs[name], cp)
	return cp.Version
}

// Get returns a copy of the named definition. Version 0 selects the latest.
func (tr *TemplateRegistry) Get(name string, version int) (*TemplateDefinition, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	versions := tr.defs[name]
	if len(versions) == 0 {
		return nil, ErrTemplateNotFound
	}
	if version == 0 {
		version = len(versions)
	}
	if version < 1 || version > len(versions) {
		return nil, ErrTemplateNotFound
	}
	return deepcopy.Copy(versions[version-1]).(*TemplateDefinition), nil
}

// List returns the known definition names, sorted.
func (tr *TemplateRegistry) List() []string {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	names := make([]string, 0, len(tr.defs))
	for name := range tr.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CaptureTemplate snapshots every structure fully contained in the region as
// a template definition with relative coordinates.
func CaptureTemplate(st *GridState, origin Position, dims Dimensions) *TemplateDefinition {
	def := &TemplateDefinition{
		Dims:      dims,
		Overrides: make(map[string]string),
	}
	region := &Structure{Origin: origin, Dims: dims}
	referenced := make(map[string]bool)
	for _, s := range st.Structures {
		if s.isContainer() && region.ContainsFootprint(s.Origin, s.Dims) {
			for _, id := range s.referencedIDs() {
				referenced[id] = true
			}
		}
	}

	var ids []string
	for id, s := range st.Structures {
		if referenced[id] || !region.ContainsFootprint(s.Origin, s.Dims) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s := st.Structures[id]
		bp := NestedBlueprint{
			Kind:       s.Kind,
			Offset:     Position{Row: s.Origin.Row - origin.Row, Col: s.Origin.Col - origin.Col},
			Dims:       s.Dims,
			Dir:        s.Dir,
			HeaderRows: s.HeaderRows,
			HeaderCols: s.HeaderCols,
		}
		switch s.Kind {
		case KindCell:
			bp.Value = s.Value
		case KindTable, KindArray:
			bp.Values = make(map[string]string)
			eachPosition(s.Origin, s.Dims, func(p Position) {
				cellID := s.slotAt(p)
				if cellID == "" {
					return
				}
				if cell, ok := st.Structures[cellID]; ok {
					bp.Values[relKey(p.Row-s.Origin.Row, p.Col-s.Origin.Col)] = cell.Value
				}
			})
		case KindTemplate:
			// Nested templates are not captured; a template snapshot is flat.
			continue
		}
		def.Nested = append(def.Nested, bp)
	}
	return def
}

// InstantiateTemplate places a Template structure plus the definition's
// nested content at target. The footprint uses the given dimensions (zero
// dimensions fall back to the definition's own); nested blueprints that do
// not fit inside the footprint are skipped. Fails when the move validator
// rejects the footprint.
func (st *GridState) InstantiateTemplate(def *TemplateDefinition, target Position, dims Dimensions) (*GridState, error) {
	if dims.Rows == 0 && dims.Cols == 0 {
		dims = def.Dims
	}
	tpl, err := NewTemplate(target, dims)
	if err != nil {
		return nil, err
	}
	if !inBounds(target, dims) {
		return nil, ErrOutOfBounds
	}
	// A template may overlap nothing, and unlike a move there is no prior
	// footprint whose contents travel along: any occupant at all rejects.
	var occupied bool
	eachPosition(target, dims, func(p Position) {
		if len(st.Index.idsAt(p)) > 0 {
			occupied = true
		}
	})
	if occupied {
		return nil, ErrInvalidTarget
	}

	ns := st.clone()
	for key, v := range def.Overrides {
		tpl.Overrides[key] = v
	}
	tpl.Name = def.Name
	ns.insert(tpl)

	for _, bp := range def.Nested {
		if bp.Offset.Row+bp.Dims.Rows > dims.Rows || bp.Offset.Col+bp.Dims.Cols > dims.Cols {
			continue
		}
		abs := Position{Row: target.Row + bp.Offset.Row, Col: target.Col + bp.Offset.Col}
		switch bp.Kind {
		case KindCell:
			cell, err := NewCell(abs, bp.Dims, bp.Value)
			if err != nil {
				return nil, err
			}
			ns.insert(cell)
		case KindArray, KindTable:
			var container *Structure
			if bp.Kind == KindTable {
				container, err = NewTable(abs, bp.Dims, bp.HeaderRows, bp.HeaderCols)
			} else {
				length := bp.Dims.Cols
				if bp.Dir == Vertical {
					length = bp.Dims.Rows
				}
				container, err = NewArray(abs, length, bp.Dir)
			}
			if err != nil {
				return nil, err
			}
			for key, v := range bp.Values {
				r, c, ok := parseRelKey(key)
				if !ok {
					continue
				}
				p := Position{Row: abs.Row + r, Col: abs.Col + c}
				cell, err := NewCell(p, Dimensions{Rows: 1, Cols: 1}, v)
				if err != nil {
					return nil, err
				}
				ns.insert(cell)
				container.setSlot(p, cell.ID)
			}
			ns.insert(container)
		}
	}
	return ns, nil
}
