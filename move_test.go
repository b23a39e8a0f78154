package main

import (
	"errors"
	"testing"
)

func TestMoveTableCarriesValues(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 2, 2, 0, 0, [][]string{{"A", "B"}, {"C", "D"}})

	ns, conflicts, err := st.MoveStructure(table.ID, Position{Row: 5, Col: 5}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move failed: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)

	if got := valueAt(t, ns, 5, 5); got != "A" {
		t.Fatalf("(5,5) = %q", got)
	}
	if got := valueAt(t, ns, 6, 6); got != "D" {
		t.Fatalf("(6,6) = %q", got)
	}
	if got := valueAt(t, ns, 0, 0); got != "" {
		t.Fatalf("source should be vacated, got %q", got)
	}
	// Prior state untouched.
	if got := valueAt(t, st, 0, 0); got != "A" {
		t.Fatalf("original state mutated: %q", got)
	}
}

func TestMoveRoundTripRestoresValues(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 2, 2, 1, 0, [][]string{{"h", ""}, {"a", "b"}})

	there, _, err := st.MoveStructure(table.ID, Position{Row: 4, Col: 4}, false)
	if err != nil {
		t.Fatalf("move there: %v", err)
	}
	back, _, err := there.MoveStructure(table.ID, Position{Row: 0, Col: 0}, false)
	if err != nil {
		t.Fatalf("move back: %v", err)
	}
	mustConsistent(t, back)

	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			want := valueAt(t, st, r, c)
			if got := valueAt(t, back, r, c); got != want {
				t.Fatalf("(%d,%d) = %q after round trip, want %q", r, c, got, want)
			}
		}
	}
	if got := back.Structures[table.ID]; got.HeaderRows != 1 {
		t.Fatalf("header rows = %d", got.HeaderRows)
	}
}

func TestMoveCellOntoCellConflictThenOverwrite(t *testing.T) {
	st := NewGridState()
	x := placeCell(t, st, 2, 2, "X")
	placeCell(t, st, 2, 3, "Y")

	ns, conflicts, err := st.MoveStructure(x.ID, Position{Row: 2, Col: 3}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ns != nil {
		t.Fatal("blocked move must not produce a state")
	}
	if len(conflicts) != 1 || conflicts[0].ExistingValue != "Y" || conflicts[0].NewValue != "X" {
		t.Fatalf("conflicts = %+v", conflicts)
	}
	mustConsistent(t, st)

	ns, conflicts, err = st.MoveStructure(x.ID, Position{Row: 2, Col: 3}, true)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("overwrite retry failed: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)
	if got := valueAt(t, ns, 2, 3); got != "X" {
		t.Fatalf("(2,3) = %q", got)
	}
	if got := valueAt(t, ns, 2, 2); got != "" {
		t.Fatalf("source = %q", got)
	}
	if len(ns.Structures) != 1 {
		t.Fatalf("consumed cell should be gone, have %d structures", len(ns.Structures))
	}
}

func TestMoveToOwnOriginIsNoOp(t *testing.T) {
	st := NewGridState()
	cell := placeCell(t, st, 1, 1, "v")
	ns, conflicts, err := st.MoveStructure(cell.ID, Position{Row: 1, Col: 1}, false)
	if err != nil || conflicts != nil {
		t.Fatalf("no-op move: %v %v", err, conflicts)
	}
	if ns != st {
		t.Fatal("moving to own origin should return the same state")
	}
}

func TestMoveRejectsInvalidTargets(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 2, 2, 0, 0, nil)
	placeTable(t, st, 10, 10, 2, 2, 0, 0, nil)
	placeTemplate(t, st, 20, 5, 3, 3)
	merged := placeMergedCell(t, st, 10, 0, 1, 2, "m")

	if _, _, err := st.MoveStructure(table.ID, Position{Row: 11, Col: 11}, false); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("container onto container: %v", err)
	}
	if _, _, err := st.MoveStructure(table.ID, Position{Row: 21, Col: 6}, false); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("container onto template: %v", err)
	}
	if _, _, err := st.MoveStructure(table.ID, Position{Row: 9, Col: 0}, false); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("container onto merged cell: %v", err)
	}
	if _, _, err := st.MoveStructure(merged.ID, Position{Row: 10, Col: 10}, false); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("merged cell into container: %v", err)
	}
	if _, _, err := st.MoveStructure(table.ID, Position{Row: MaxRows - 1, Col: 0}, false); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out of bounds: %v", err)
	}
	if _, _, err := st.MoveStructure("nope", Position{}, false); !errors.Is(err, ErrStructureNotFound) {
		t.Fatalf("unknown id: %v", err)
	}
	mustConsistent(t, st)
}

func TestMoveContainerConsumesCoveredStandaloneCell(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 2, 2, 0, 0, nil)
	placeCell(t, st, 5, 6, "Z")

	ns, conflicts, err := st.MoveStructure(table.ID, Position{Row: 5, Col: 5}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)

	moved := ns.Structures[table.ID]
	if moved.slotAt(Position{Row: 5, Col: 6}) == "" {
		t.Fatal("covered cell should be re-parented into the table")
	}
	if got := valueAt(t, ns, 5, 6); got != "Z" {
		t.Fatalf("(5,6) = %q", got)
	}
}

func TestMoveCellIntoContainerSlot(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 2, 2, 0, 0, nil)
	cell := placeCell(t, st, 5, 5, "v")

	ns, conflicts, err := st.MoveStructure(cell.ID, Position{Row: 1, Col: 1}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)

	if got := ns.Structures[table.ID].slotAt(Position{Row: 1, Col: 1}); got != cell.ID {
		t.Fatalf("cell not absorbed into slot: %q", got)
	}
	if got := valueAt(t, ns, 1, 1); got != "v" {
		t.Fatalf("(1,1) = %q", got)
	}
}

func TestMoveLinkedCellOutOfContainer(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 1, 2, 0, 0, [][]string{{"a", ""}})
	cellID := table.slotAt(Position{Row: 0, Col: 0})

	ns, conflicts, err := st.MoveStructure(cellID, Position{Row: 5, Col: 5}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)

	if got := ns.Structures[table.ID].slotAt(Position{Row: 0, Col: 0}); got != "" {
		t.Fatalf("vacated slot should be nulled, got %q", got)
	}
	if got := valueAt(t, ns, 5, 5); got != "a" {
		t.Fatalf("(5,5) = %q", got)
	}
	if got := valueAt(t, ns, 0, 0); got != "" {
		t.Fatalf("(0,0) = %q", got)
	}
}

func TestMoveTemplateCarriesNestedStructures(t *testing.T) {
	st := NewGridState()
	tpl := placeTemplate(t, st, 0, 0, 4, 4)
	tpl.Overrides["0,0"] = "head"
	table := placeTable(t, st, 1, 1, 2, 2, 0, 0, [][]string{{"a", "b"}})
	placeCell(t, st, 3, 0, "loose")

	ns, conflicts, err := st.MoveStructure(tpl.ID, Position{Row: 10, Col: 10}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)

	if got := valueAt(t, ns, 10, 10); got != "head" {
		t.Fatalf("override did not travel: %q", got)
	}
	if got := valueAt(t, ns, 11, 11); got != "a" {
		t.Fatalf("nested table value: %q", got)
	}
	if got := valueAt(t, ns, 13, 10); got != "loose" {
		t.Fatalf("nested loose cell: %q", got)
	}
	if got := ns.Structures[table.ID].Origin; got != (Position{Row: 11, Col: 11}) {
		t.Fatalf("nested table origin = %+v", got)
	}
	if got := valueAt(t, ns, 1, 1); got != "" {
		t.Fatalf("source region should be vacated, got %q", got)
	}
}

func TestMoveTemplateByDeltaSmallerThanFootprint(t *testing.T) {
	st := NewGridState()
	tpl := placeTemplate(t, st, 0, 0, 4, 4)
	table := placeTable(t, st, 0, 0, 2, 2, 0, 0, [][]string{{"a", "b"}})
	placeCell(t, st, 3, 3, "c")

	// The destination overlaps the source footprint: a nested table lands on
	// a sibling cell's old position before that cell has moved itself.
	ns, conflicts, err := st.MoveStructure(tpl.ID, Position{Row: 2, Col: 2}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)

	if got := ns.Structures[table.ID].Origin; got != (Position{Row: 2, Col: 2}) {
		t.Fatalf("nested table origin = %+v", got)
	}
	if got := valueAt(t, ns, 2, 2); got != "a" {
		t.Fatalf("(2,2) = %q", got)
	}
	if got := valueAt(t, ns, 5, 5); got != "c" {
		t.Fatalf("sibling cell lost in overlapping move, (5,5) = %q", got)
	}
	if got := valueAt(t, ns, 0, 0); got != "" {
		t.Fatalf("vacated (0,0) = %q", got)
	}
}

func TestMergedCellMoveCannotHideValuedCell(t *testing.T) {
	st := NewGridState()
	merged := placeMergedCell(t, st, 0, 0, 1, 2, "M")
	placeCell(t, st, 5, 6, "Q")

	// (5,6) is the merged body, not the origin: "Q" would render as empty.
	if _, _, err := st.MoveStructure(merged.ID, Position{Row: 5, Col: 5}, false); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	mustConsistent(t, st)
	if got := valueAt(t, st, 5, 6); got != "Q" {
		t.Fatalf("(5,6) = %q", got)
	}

	// A valueless cell under the body is consumed as usual.
	st2 := NewGridState()
	merged2 := placeMergedCell(t, st2, 0, 0, 1, 2, "M")
	placeCell(t, st2, 5, 6, "")
	ns, conflicts, err := st2.MoveStructure(merged2.ID, Position{Row: 5, Col: 5}, false)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("move over empty cell: %v %v", err, conflicts)
	}
	mustConsistent(t, ns)
	if got := valueAt(t, ns, 5, 5); got != "M" {
		t.Fatalf("(5,5) = %q", got)
	}
	if len(ns.Structures) != 1 {
		t.Fatalf("empty covered cell should be consumed, have %d", len(ns.Structures))
	}
}

func TestFailedMoveLeavesStateUntouched(t *testing.T) {
	st := NewGridState()
	table := placeTable(t, st, 0, 0, 2, 2, 0, 0, [][]string{{"A", "B"}})
	placeTemplate(t, st, 5, 5, 2, 2)

	if _, _, err := st.MoveStructure(table.ID, Position{Row: 5, Col: 5}, false); err == nil {
		t.Fatal("expected rejection")
	}
	mustConsistent(t, st)
	if got := valueAt(t, st, 0, 0); got != "A" {
		t.Fatalf("state changed after rejected move: %q", got)
	}
}
