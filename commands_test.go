package main

import (
	"errors"
	"testing"
)

func TestSetCellValueCascade(t *testing.T) {
	st := NewGridState()
	tpl := placeTemplate(t, st, 0, 0, 2, 2)
	table := placeTable(t, st, 5, 0, 1, 2, 0, 0, [][]string{{"a", ""}})

	// Template interior records an override.
	ns, err := st.SetCellValue(Position{Row: 1, Col: 1}, "ov")
	if err != nil {
		t.Fatalf("SetCellValue template: %v", err)
	}
	if got := ns.Structures[tpl.ID].Overrides["1,1"]; got != "ov" {
		t.Fatalf("override = %q", got)
	}

	// Linked cell updates in place.
	ns, err = st.SetCellValue(Position{Row: 5, Col: 0}, "a2")
	if err != nil {
		t.Fatalf("SetCellValue linked: %v", err)
	}
	if got := valueAt(t, ns, 5, 0); got != "a2" {
		t.Fatalf("(5,0) = %q", got)
	}

	// Empty container slot gets a fresh linked cell.
	ns, err = st.SetCellValue(Position{Row: 5, Col: 1}, "b")
	if err != nil {
		t.Fatalf("SetCellValue empty slot: %v", err)
	}
	mustConsistent(t, ns)
	if got := ns.Structures[table.ID].slotAt(Position{Row: 5, Col: 1}); got == "" {
		t.Fatal("slot should be linked to a new cell")
	}
	if got := valueAt(t, ns, 5, 1); got != "b" {
		t.Fatalf("(5,1) = %q", got)
	}

	// Bare grid gets a standalone cell.
	ns, err = st.SetCellValue(Position{Row: 9, Col: 9}, "free")
	if err != nil {
		t.Fatalf("SetCellValue bare: %v", err)
	}
	mustConsistent(t, ns)
	if got := valueAt(t, ns, 9, 9); got != "free" {
		t.Fatalf("(9,9) = %q", got)
	}
}

func TestSetEmptyValueOnEmptyGroundIsNoOp(t *testing.T) {
	st := NewGridState()
	ns, err := st.SetCellValue(Position{Row: 3, Col: 3}, "")
	if err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if ns != st {
		t.Fatal("clearing empty ground should return the same state")
	}
}

func TestSetCellValueOutOfBounds(t *testing.T) {
	st := NewGridState()
	if _, err := st.SetCellValue(Position{Row: 0, Col: MaxCols}, "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestDeleteContainerRemovesItsCells(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 1, 2, 0, 0, [][]string{{"a", "b"}})
	placeCell(t, st, 5, 5, "keep")

	ns, err := st.DeleteStructure(table.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	mustConsistent(t, ns)
	if len(ns.Structures) != 1 {
		t.Fatalf("expected only the unrelated cell to survive, have %d", len(ns.Structures))
	}
	if got := valueAt(t, ns, 0, 0); got != "" {
		t.Fatalf("(0,0) = %q", got)
	}
	if got := valueAt(t, ns, 5, 5); got != "keep" {
		t.Fatalf("(5,5) = %q", got)
	}
}

func TestDeleteTemplateReleasesNestedStructures(t *testing.T) {
	st := NewGridState()
	tpl := placeTemplate(t, st, 0, 0, 3, 3)
	cell := placeCell(t, st, 1, 1, "stays")

	ns, err := st.DeleteStructure(tpl.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	mustConsistent(t, ns)
	if _, ok := ns.Structures[cell.ID]; !ok {
		t.Fatal("nested cell should survive template deletion")
	}
}

func TestRenameStructure(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 1, 1, 0, 0, nil)

	ns, err := st.RenameStructure(table.ID, "budget")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got := ns.Structures[table.ID].Name; got != "budget" {
		t.Fatalf("name = %q", got)
	}
	if st.Structures[table.ID].Name != "" {
		t.Fatal("rename mutated the prior state")
	}
	if _, err := st.RenameStructure("nope", "x"); !errors.Is(err, ErrStructureNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
}
