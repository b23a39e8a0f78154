package main

import "testing"

func mustConsistent(t *testing.T, st *GridState) {
	t.Helper()
	if err := st.checkConsistency(); err != nil {
		t.Fatalf("index inconsistency: %v", err)
	}
}

func placeCell(t *testing.T, st *GridState, row, col int, value string) *Structure {
	t.Helper()
	cell, err := NewCell(Position{Row: row, Col: col}, Dimensions{Rows: 1, Cols: 1}, value)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	st.insert(cell)
	return cell
}

func placeMergedCell(t *testing.T, st *GridState, row, col, rows, cols int, value string) *Structure {
	t.Helper()
	cell, err := NewCell(Position{Row: row, Col: col}, Dimensions{Rows: rows, Cols: cols}, value)
	if err != nil {
		t.Fatalf("NewCell: %v", err)
	}
	st.insert(cell)
	return cell
}

// placeTable builds a table and links a fresh cell for every non-empty value.
// values is row-major and may be shorter than the table.
func placeTable(t *testing.T, st *GridState, row, col, rows, cols, headerRows, headerCols int, values [][]string) *Structure {
	t.Helper()
	table, err := NewTable(Position{Row: row, Col: col}, Dimensions{Rows: rows, Cols: cols}, headerRows, headerCols)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	st.insert(table)
	for r := range values {
		for c := range values[r] {
			if values[r][c] == "" {
				continue
			}
			cell := placeCell(t, st, row+r, col+c, values[r][c])
			table.setSlot(Position{Row: row + r, Col: col + c}, cell.ID)
		}
	}
	return table
}

func placeArray(t *testing.T, st *GridState, row, col, length int, dir Direction, values []string) *Structure {
	t.Helper()
	arr, err := NewArray(Position{Row: row, Col: col}, length, dir)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	st.insert(arr)
	for i, v := range values {
		if v == "" {
			continue
		}
		p := Position{Row: row, Col: col + i}
		if dir == Vertical {
			p = Position{Row: row + i, Col: col}
		}
		cell := placeCell(t, st, p.Row, p.Col, v)
		arr.setSlot(p, cell.ID)
	}
	return arr
}

func placeTemplate(t *testing.T, st *GridState, row, col, rows, cols int) *Structure {
	t.Helper()
	tpl, err := NewTemplate(Position{Row: row, Col: col}, Dimensions{Rows: rows, Cols: cols})
	if err != nil {
		t.Fatalf("NewTemplate: %v", err)
	}
	st.insert(tpl)
	return tpl
}

func valueAt(t *testing.T, st *GridState, row, col int) string {
	t.Helper()
	return st.CellValueAt(Position{Row: row, Col: col})
}
