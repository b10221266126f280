package daily

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doroending/internal/catalog"
)

func newTestCatalog(t *testing.T, names ...string) *catalog.Store {
	t.Helper()
	base := t.TempDir()
	store, err := catalog.New(catalog.Options{
		DataFile: filepath.Join(base, "doroendings.json"),
		PicDir:   filepath.Join(base, "pics"),
	}, nil)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	for _, name := range names {
		if _, err := store.Add(context.Background(), name, name+" End", nil); err != nil {
			t.Fatalf("Add(%q) failed: %v", name, err)
		}
	}
	return store
}

func newTestLedger(t *testing.T, cat *catalog.Store, clock *time.Time) *Ledger {
	t.Helper()
	base := t.TempDir()
	ledger, err := New(Options{
		DateFile: filepath.Join(base, "doro_date_record.json"),
		MapFile:  filepath.Join(base, "user_doro_map.json"),
		Now:      func() time.Time { return *clock },
	}, cat, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ledger
}

func TestPickIsStableWithinADay(t *testing.T) {
	cat := newTestCatalog(t, "A", "B", "C", "D", "E")
	clock := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ledger := newTestLedger(t, cat, &clock)

	first, fresh, err := ledger.Pick("user-1")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if !fresh {
		t.Error("first pick should be fresh")
	}

	clock = clock.Add(5 * time.Hour)
	second, fresh, err := ledger.Pick("user-1")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if fresh {
		t.Error("second pick on the same day should reuse the assignment")
	}
	if first.ID != second.ID {
		t.Errorf("picks differ within a day: %d then %d", first.ID, second.ID)
	}
}

func TestPickResetsOnRollover(t *testing.T) {
	cat := newTestCatalog(t, "A", "B", "C")
	clock := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	ledger := newTestLedger(t, cat, &clock)

	if _, _, err := ledger.Pick("user-1"); err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if ledger.AssignmentCount() != 1 {
		t.Fatalf("assignments = %d, want 1", ledger.AssignmentCount())
	}

	clock = clock.Add(2 * time.Hour) // crosses midnight
	if _, fresh, err := ledger.Pick("user-2"); err != nil || !fresh {
		t.Fatalf("Pick after rollover = fresh %v, err %v", fresh, err)
	}
	if ledger.CurrentDate() != "2026-08-31" {
		t.Errorf("date = %q, want 2026-08-31", ledger.CurrentDate())
	}
	// user-1's old assignment was cleared by the rollover.
	if ledger.AssignmentCount() != 1 {
		t.Errorf("assignments = %d, want 1 after reset", ledger.AssignmentCount())
	}
}

func TestPickHealsStaleAssignment(t *testing.T) {
	cat := newTestCatalog(t, "A", "B")
	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	ledger := newTestLedger(t, cat, &clock)

	first, _, err := ledger.Pick("user-1")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if _, err := cat.Remove(first.Name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	second, fresh, err := ledger.Pick("user-1")
	if err != nil {
		t.Fatalf("Pick after removal failed: %v", err)
	}
	if !fresh {
		t.Error("stale assignment should trigger a fresh pick")
	}
	if second.ID == first.ID {
		t.Errorf("re-pick returned the deleted entry id %d", first.ID)
	}
}

func TestPickEmptyCatalog(t *testing.T) {
	cat := newTestCatalog(t)
	clock := time.Now()
	ledger := newTestLedger(t, cat, &clock)

	if _, _, err := ledger.Pick("user-1"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestLedgerPersistsAcrossRestarts(t *testing.T) {
	cat := newTestCatalog(t, "A", "B", "C")
	base := t.TempDir()
	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	opts := Options{
		DateFile: filepath.Join(base, "date.json"),
		MapFile:  filepath.Join(base, "map.json"),
		Now:      func() time.Time { return clock },
	}

	ledger, err := New(opts, cat, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	first, _, err := ledger.Pick("user-1")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}

	reloaded, err := New(opts, cat, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, fresh, err := reloaded.Pick("user-1")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if fresh || second.ID != first.ID {
		t.Errorf("reloaded pick = id %d fresh %v, want id %d cached", second.ID, fresh, first.ID)
	}
}

func TestPersistedFileShapes(t *testing.T) {
	cat := newTestCatalog(t, "A")
	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	ledger := newTestLedger(t, cat, &clock)

	if _, _, err := ledger.Pick("42"); err != nil {
		t.Fatalf("Pick failed: %v", err)
	}

	data, err := os.ReadFile(ledger.dateFile)
	if err != nil {
		t.Fatalf("read date file: %v", err)
	}
	var record map[string]string
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("parse date file: %v", err)
	}
	if record["date"] != "2026-08-30" {
		t.Errorf("date record = %v", record)
	}

	data, err = os.ReadFile(ledger.mapFile)
	if err != nil {
		t.Fatalf("read map file: %v", err)
	}
	var table map[string]int64
	if err := json.Unmarshal(data, &table); err != nil {
		t.Fatalf("parse map file: %v", err)
	}
	if table["42"] != 1 {
		t.Errorf("assignment table = %v", table)
	}
}
