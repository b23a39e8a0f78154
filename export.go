package main

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// ExportXLSX renders the board's resolved values into an xlsx workbook and
// streams it to w. Merged cells become merged ranges, table headers are bold.
func ExportXLSX(b *Board, w http.ResponseWriter) error {
	st := b.State()
	f := excelize.NewFile()
	defer f.Close()

	maxRow, maxCol := 0, 0
	for _, s := range st.Structures {
		end := EndPosition(s.Origin, s.Dims)
		if end.Row > maxRow {
			maxRow = end.Row
		}
		if end.Col > maxCol {
			maxCol = end.Col
		}
	}

	for row := 0; row <= maxRow; row++ {
		for col := 0; col <= maxCol; col++ {
			value := st.CellValueAt(Position{Row: row, Col: col})
			if value == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(col+1, row+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, name, value); err != nil {
				return err
			}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return err
	}

	for _, s := range st.Structures {
		switch s.Kind {
		case KindCell:
			if s.Dims.Area() > 1 {
				start, _ := excelize.CoordinatesToCellName(s.Origin.Col+1, s.Origin.Row+1)
				end := EndPosition(s.Origin, s.Dims)
				stop, _ := excelize.CoordinatesToCellName(end.Col+1, end.Row+1)
				if err := f.MergeCell(exportSheet, start, stop); err != nil {
					return err
				}
			}
		case KindTable:
			if err := styleTableHeaders(f, st, s, headerStyle); err != nil {
				return err
			}
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.Name+".xlsx"))
	_, err = f.WriteTo(w)
	return err
}

func styleTableHeaders(f *excelize.File, st *GridState, s *Structure, style int) error {
	var firstErr error
	eachPosition(s.Origin, s.Dims, func(p Position) {
		if firstErr != nil || !st.IsTableHeader(p) {
			return
		}
		name, err := excelize.CoordinatesToCellName(p.Col+1, p.Row+1)
		if err != nil {
			firstErr = err
			return
		}
		firstErr = f.SetCellStyle(exportSheet, name, name, style)
	})
	return firstErr
}
