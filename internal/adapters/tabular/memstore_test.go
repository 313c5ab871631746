package tabular

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemStore_ReadsTrimTrailingCells(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(WithRows(Main, [][]string{
		{"Level", "Verifier", "alice", ""},
		{"Alpha", "alice", "⭐", ""},
		{"Beta", "", "", ""},
		{"", "", "", ""},
	}))

	col, err := store.Column(ctx, Main, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Level", "Alpha", "Beta"}, col); diff != "" {
		t.Errorf("column mismatch (-want +got):\n%s", diff)
	}

	row, err := store.Row(ctx, Main, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Beta"}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}

	row, err = store.Row(ctx, Main, 40)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(row) != 0 {
		t.Errorf("expected empty row past the end, got %v", row)
	}

	rows, err := store.Rows(ctx, Main)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected trailing empty row trimmed, got %d rows", len(rows))
	}
}

func TestMemStore_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(WithRows(Main, [][]string{{"Level"}, {"Alpha"}}))

	row, _ := store.Row(ctx, Main, 2)
	row[0] = "mutated"
	rows, _ := store.Rows(ctx, Main)
	rows[1][0] = "mutated"

	if got := store.Snapshot(Main)[1][0]; got != "Alpha" {
		t.Errorf("store content changed through a read copy: %q", got)
	}
}

func TestMemStore_InsertAndDeleteShiftRows(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(WithRows(Main, [][]string{{"Level"}, {"A"}, {"B"}, {"C"}}))

	if err := store.InsertRow(ctx, Main, 3, []string{"X"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"Level"}, {"A"}, {"X"}, {"B"}, {"C"}}
	if diff := cmp.Diff(want, store.Snapshot(Main)); diff != "" {
		t.Errorf("after insert (-want +got):\n%s", diff)
	}

	if err := store.DeleteRow(ctx, Main, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = [][]string{{"Level"}, {"X"}, {"B"}, {"C"}}
	if diff := cmp.Diff(want, store.Snapshot(Main)); diff != "" {
		t.Errorf("after delete (-want +got):\n%s", diff)
	}

	// Past the end: insert pads, delete is a no-op.
	if err := store.InsertRow(ctx, Main, 7, []string{"Z"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := store.Snapshot(Main); len(got) != 7 || got[6][0] != "Z" {
		t.Errorf("expected padded insert at row 7, got %v", got)
	}
	if err := store.DeleteRow(ctx, Main, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.DeleteRow(ctx, Main, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestMemStore_WritesAndAppend(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(WithRows(Leaderboard, [][]string{{"Rank", "Player", "Points"}}))

	if err := store.WriteCell(ctx, Leaderboard, 3, 2, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.WriteRange(ctx, Leaderboard, 2, 1, [][]string{{"1", "alice", "40"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AppendRow(ctx, Leaderboard, []string{"3", "carol", "10"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{
		{"Rank", "Player", "Points"},
		{"1", "alice", "40"},
		{"", "bob"},
		{"3", "carol", "10"},
	}
	if diff := cmp.Diff(want, store.Snapshot(Leaderboard)); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
	if store.Writes() != 3 {
		t.Errorf("expected 3 writes, got %d", store.Writes())
	}
}

func TestMemStore_FaultsAndUnknownTables(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	boom := errors.New("quota exceeded")

	store.FailNext("InsertRow", Extreme, boom)
	err := store.InsertRow(ctx, Extreme, 2, []string{"A"})
	if !errors.Is(err, ErrAdapter) || !errors.Is(err, boom) {
		t.Fatalf("expected adapter error wrapping the fault, got %v", err)
	}
	var ae *AdapterError
	if !errors.As(err, &ae) || ae.Op != "InsertRow" || ae.Table != Extreme {
		t.Errorf("unexpected adapter error details: %+v", ae)
	}

	// The fault fires once.
	if err := store.InsertRow(ctx, Extreme, 2, []string{"A"}); err != nil {
		t.Errorf("unexpected error after fault consumed: %v", err)
	}
	if store.Writes() != 1 {
		t.Errorf("failed call must not count as a write, got %d", store.Writes())
	}

	if _, err := store.Rows(ctx, Table("nope")); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}
}
