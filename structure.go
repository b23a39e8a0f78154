package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

const (
	MaxRows = 1000
	MaxCols = 26
)

// Structure/command errors.
var (
	ErrStructureNotFound = errors.New("structure not found")
	ErrOutOfBounds       = errors.New("target footprint is outside the grid")
	ErrInvalidTarget     = errors.New("target position violates overlap rules")
	ErrInvalidDimensions = errors.New("dimensions must be at least 1x1")
	ErrTemplateNotFound  = errors.New("template definition not found")
	ErrNotResizable      = errors.New("structure kind does not support this operation")
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (d Dimensions) Area() int {
	return d.Rows * d.Cols
}

type Kind int

const (
	KindCell Kind = iota
	KindArray
	KindTable
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	case KindTemplate:
		return "template"
	}
	return "unknown"
}

type Direction int

const (
	Horizontal Direction = iota
	Vertical
)

// Structure is the single entity record placed on the grid. Kind selects
// which of the variant fields are meaningful; the constructors below are the
// only way a valid Structure is built.
type Structure struct {
	ID     string     `json:"id"`
	Kind   Kind       `json:"kind"`
	Origin Position   `json:"origin"`
	Dims   Dimensions `json:"dims"`
	Name   string     `json:"name,omitempty"`

	// KindCell: the scalar text value. Authoritative only at Origin when the
	// cell is merged (Dims > 1x1).
	Value string `json:"value,omitempty"`

	// KindArray: one entry per position along Dir; "" means the slot is
	// logically empty but reserved.
	Dir     Direction `json:"dir,omitempty"`
	CellIDs []string  `json:"cell_ids,omitempty"`

	// KindTable: Grid mirrors Dims (rows x cols of cell ids, "" for empty).
	HeaderRows int        `json:"header_rows,omitempty"`
	HeaderCols int        `json:"header_cols,omitempty"`
	Grid       [][]string `json:"grid,omitempty"`

	// KindTemplate: per-position value overrides keyed by relative "row,col".
	Overrides map[string]string `json:"overrides,omitempty"`
}

var idCounter uint64

func generateID() string {
	return "s" + strconv.FormatUint(atomic.AddUint64(&idCounter, 1), 10)
}

// relKey builds the relative-coordinate key used by template overrides.
func relKey(row, col int) string {
	return strconv.Itoa(row) + "," + strconv.Itoa(col)
}

func parseRelKey(key string) (row, col int, ok bool) {
	parts := strings.SplitN(key, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	r, err1 := strconv.Atoi(parts[0])
	c, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return r, c, true
}

func NewCell(origin Position, dims Dimensions, value string) (*Structure, error) {
	if dims.Rows < 1 || dims.Cols < 1 {
		return nil, ErrInvalidDimensions
	}
	return &Structure{
		ID:     generateID(),
		Kind:   KindCell,
		Origin: origin,
		Dims:   dims,
		Value:  value,
	}, nil
}

func NewArray(origin Position, length int, dir Direction) (*Structure, error) {
	if length < 1 {
		return nil, ErrInvalidDimensions
	}
	dims := Dimensions{Rows: 1, Cols: length}
	if dir == Vertical {
		dims = Dimensions{Rows: length, Cols: 1}
	}
	return &Structure{
		ID:      generateID(),
		Kind:    KindArray,
		Origin:  origin,
		Dims:    dims,
		Dir:     dir,
		CellIDs: make([]string, length),
	}, nil
}

func NewTable(origin Position, dims Dimensions, headerRows, headerCols int) (*Structure, error) {
	if dims.Rows < 1 || dims.Cols < 1 {
		return nil, ErrInvalidDimensions
	}
	if headerRows < 0 || headerRows > dims.Rows || headerCols < 0 || headerCols > dims.Cols {
		return nil, fmt.Errorf("header counts exceed table dimensions: %w", ErrInvalidDimensions)
	}
	grid := make([][]string, dims.Rows)
	for r := range grid {
		grid[r] = make([]string, dims.Cols)
	}
	return &Structure{
		ID:         generateID(),
		Kind:       KindTable,
		Origin:     origin,
		Dims:       dims,
		HeaderRows: headerRows,
		HeaderCols: headerCols,
		Grid:       grid,
	}, nil
}

func NewTemplate(origin Position, dims Dimensions) (*Structure, error) {
	if dims.Rows < 1 || dims.Cols < 1 {
		return nil, ErrInvalidDimensions
	}
	return &Structure{
		ID:        generateID(),
		Kind:      KindTemplate,
		Origin:    origin,
		Dims:      dims,
		Overrides: make(map[string]string),
	}, nil
}

// EndPosition returns the bottom-right coordinate of a footprint.
func EndPosition(origin Position, dims Dimensions) Position {
	return Position{Row: origin.Row + dims.Rows - 1, Col: origin.Col + dims.Cols - 1}
}

// Contains reports whether the structure's footprint covers p.
func (s *Structure) Contains(p Position) bool {
	return p.Row >= s.Origin.Row && p.Row < s.Origin.Row+s.Dims.Rows &&
		p.Col >= s.Origin.Col && p.Col < s.Origin.Col+s.Dims.Cols
}

// ContainsFootprint reports whether s fully contains the given footprint.
func (s *Structure) ContainsFootprint(origin Position, dims Dimensions) bool {
	return s.Contains(origin) && s.Contains(EndPosition(origin, dims))
}

// eachPosition calls fn for every coordinate in the footprint, row-major.
func eachPosition(origin Position, dims Dimensions, fn func(Position)) {
	for r := origin.Row; r < origin.Row+dims.Rows; r++ {
		for c := origin.Col; c < origin.Col+dims.Cols; c++ {
			fn(Position{Row: r, Col: c})
		}
	}
}

func inBounds(origin Position, dims Dimensions) bool {
	if origin.Row < 0 || origin.Col < 0 {
		return false
	}
	end := EndPosition(origin, dims)
	return end.Row < MaxRows && end.Col < MaxCols
}

// isContainer reports whether the structure holds references to other cells.
func (s *Structure) isContainer() bool {
	return s.Kind == KindArray || s.Kind == KindTable
}

// slotAt returns the referenced cell id at an absolute coordinate inside a
// container's footprint, or "" when the slot is empty or p is outside.
func (s *Structure) slotAt(p Position) string {
	if !s.Contains(p) {
		return ""
	}
	switch s.Kind {
	case KindTable:
		return s.Grid[p.Row-s.Origin.Row][p.Col-s.Origin.Col]
	case KindArray:
		if s.Dir == Horizontal {
			return s.CellIDs[p.Col-s.Origin.Col]
		}
		return s.CellIDs[p.Row-s.Origin.Row]
	}
	return ""
}

// setSlot writes a referenced cell id at an absolute coordinate inside a
// container's footprint. No-op outside the footprint.
func (s *Structure) setSlot(p Position, id string) {
	if !s.Contains(p) {
		return
	}
	switch s.Kind {
	case KindTable:
		s.Grid[p.Row-s.Origin.Row][p.Col-s.Origin.Col] = id
	case KindArray:
		if s.Dir == Horizontal {
			s.CellIDs[p.Col-s.Origin.Col] = id
		} else {
			s.CellIDs[p.Row-s.Origin.Row] = id
		}
	}
}

// clearSlotsFor nulls every slot referencing the given cell id.
func (s *Structure) clearSlotsFor(id string) {
	switch s.Kind {
	case KindTable:
		for r := range s.Grid {
			for c := range s.Grid[r] {
				if s.Grid[r][c] == id {
					s.Grid[r][c] = ""
				}
			}
		}
	case KindArray:
		for i := range s.CellIDs {
			if s.CellIDs[i] == id {
				s.CellIDs[i] = ""
			}
		}
	}
}

// referencedIDs lists the non-empty slot ids of a container in slot order.
func (s *Structure) referencedIDs() []string {
	var ids []string
	switch s.Kind {
	case KindTable:
		for r := range s.Grid {
			for _, id := range s.Grid[r] {
				if id != "" {
					ids = append(ids, id)
				}
			}
		}
	case KindArray:
		for _, id := range s.CellIDs {
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// clone returns a deep copy of the structure.
func (s *Structure) clone() *Structure {
	cp := *s
	if s.CellIDs != nil {
		cp.CellIDs = append([]string(nil), s.CellIDs...)
	}
	if s.Grid != nil {
		cp.Grid = make([][]string, len(s.Grid))
		for r := range s.Grid {
			cp.Grid[r] = append([]string(nil), s.Grid[r]...)
		}
	}
	if s.Overrides != nil {
		cp.Overrides = make(map[string]string, len(s.Overrides))
		for k, v := range s.Overrides {
			cp.Overrides[k] = v
		}
	}
	return &cp
}

// depthRank orders overlapping structures outermost to innermost.
func depthRank(k Kind) int {
	switch k {
	case KindTemplate:
		return 0
	case KindTable:
		return 1
	case KindArray:
		return 2
	case KindCell:
		return 3
	}
	return 4
}
