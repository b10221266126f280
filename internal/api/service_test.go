package api

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"doroending/internal/catalog"
	"doroending/internal/daily"
	"doroending/internal/history"
)

func newTestService(t *testing.T, names ...string) *Service {
	t.Helper()
	base := t.TempDir()

	cat, err := catalog.New(catalog.Options{
		DataFile: filepath.Join(base, "doroendings.json"),
		PicDir:   filepath.Join(base, "pics"),
	}, nil)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	for _, name := range names {
		if _, err := cat.Add(context.Background(), name, name+" End", nil); err != nil {
			t.Fatalf("Add(%q) failed: %v", name, err)
		}
	}

	ledger, err := daily.New(daily.Options{
		DateFile: filepath.Join(base, "date.json"),
		MapFile:  filepath.Join(base, "map.json"),
	}, cat, nil)
	if err != nil {
		t.Fatalf("daily.New failed: %v", err)
	}

	hist, err := history.Open(filepath.Join(base, "history.db"))
	if err != nil {
		t.Fatalf("history.Open failed: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	svc, err := NewService(cat, ledger, hist, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestDailyPickRecordsHistory(t *testing.T) {
	svc := newTestService(t, "Golden", "Silver")
	ctx := context.Background()

	result, err := svc.DailyPick(ctx, "u1")
	if err != nil {
		t.Fatalf("DailyPick failed: %v", err)
	}
	if !result.Fresh {
		t.Error("first pick should be fresh")
	}
	if result.Date != time.Now().Format(daily.DateFormat) {
		t.Errorf("date = %q", result.Date)
	}

	records, err := svc.History(ctx, "u1", "", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 1 || records[0].EntryID != result.Ending.ID {
		t.Errorf("history = %+v, want one record for entry %d", records, result.Ending.ID)
	}

	// A repeat pick reuses the assignment and records nothing new.
	again, err := svc.DailyPick(ctx, "u1")
	if err != nil {
		t.Fatalf("DailyPick failed: %v", err)
	}
	if again.Fresh || again.Ending.ID != result.Ending.ID {
		t.Errorf("repeat pick = %+v", again)
	}
	records, err = svc.History(ctx, "u1", "", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d history records, want 1", len(records))
	}
}

func TestAddRemoveUpdatePersist(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	added, err := svc.AddEntry(ctx, "Golden", "Golden End", nil)
	if err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}
	if added.ID != 1 {
		t.Errorf("id = %d, want 1", added.ID)
	}
	if svc.Catalog().Dirty() {
		t.Error("catalog should be flushed after AddEntry")
	}

	updated, err := svc.UpdateEntry(ctx, added.ID, map[string]string{"name": "Platinum"})
	if err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}
	if updated.Name != "Platinum" {
		t.Errorf("name = %q", updated.Name)
	}

	removed, err := svc.RemoveEntry(ctx, "Platinum")
	if err != nil {
		t.Fatalf("RemoveEntry failed: %v", err)
	}
	if removed.ID != added.ID {
		t.Errorf("removed id = %d", removed.ID)
	}
	if got := svc.ListEntries(ctx); len(got) != 0 {
		t.Errorf("list after remove = %v", got)
	}
}

func TestShowEntryResolvesIDAndName(t *testing.T) {
	svc := newTestService(t, "Golden", "42")
	ctx := context.Background()

	byID, err := svc.ShowEntry(ctx, "1")
	if err != nil {
		t.Fatalf("ShowEntry by id failed: %v", err)
	}
	if byID.Name != "Golden" {
		t.Errorf("entry = %+v", byID)
	}

	byName, err := svc.ShowEntry(ctx, "Golden")
	if err != nil {
		t.Fatalf("ShowEntry by name failed: %v", err)
	}
	if byName.ID != 1 {
		t.Errorf("entry = %+v", byName)
	}

	// An all-digits target is always an id, even when an entry has that name.
	if _, err := svc.ShowEntry(ctx, "42"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound for digit-named entry, got %v", err)
	}

	if _, err := svc.ShowEntry(ctx, "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStatsMergesSources(t *testing.T) {
	svc := newTestService(t, "Golden", "Silver", "Bronze")
	ctx := context.Background()

	if _, err := svc.DailyPick(ctx, "u1"); err != nil {
		t.Fatalf("DailyPick failed: %v", err)
	}
	if _, err := svc.DailyPick(ctx, "u2"); err != nil {
		t.Fatalf("DailyPick failed: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.MaxID != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AssignedToday != 2 {
		t.Errorf("assigned today = %d, want 2", stats.AssignedToday)
	}
	if stats.HistoryRecorded != 2 {
		t.Errorf("history recorded = %d, want 2", stats.HistoryRecorded)
	}
}

func TestEntryFrequencyOrdersByPicks(t *testing.T) {
	svc := newTestService(t, "Golden", "Silver")
	ctx := context.Background()

	seed := []struct {
		day     string
		userID  string
		entryID int64
		name    string
	}{
		{"2026-08-28", "u1", 2, "Silver"},
		{"2026-08-28", "u2", 2, "Silver"},
		{"2026-08-29", "u1", 1, "Golden"},
		{"2026-08-29", "u3", 9, "Vanished"},
	}
	for _, s := range seed {
		if err := svc.history.Append(ctx, s.day, s.userID, s.entryID, s.name); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	rows, err := svc.EntryFrequency(ctx)
	if err != nil {
		t.Fatalf("EntryFrequency failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].EntryID != 2 || rows[0].Picks != 2 || rows[0].EntryName != "Silver" {
		t.Errorf("top row = %+v, want entry 2 with 2 picks", rows[0])
	}
	// Equal counts fall back to id order.
	if rows[1].EntryID != 1 || rows[2].EntryID != 9 {
		t.Errorf("tie order = %d, %d; want 1, 9", rows[1].EntryID, rows[2].EntryID)
	}
	// Entry 9 is not in the catalog, so only its id is known.
	if rows[2].EntryName != "" {
		t.Errorf("removed entry name = %q, want empty", rows[2].EntryName)
	}
}

func TestEntryFrequencyWithoutHistoryStore(t *testing.T) {
	svc := newTestService(t, "Golden")
	svc.history = nil

	rows, err := svc.EntryFrequency(context.Background())
	if err != nil {
		t.Fatalf("EntryFrequency failed: %v", err)
	}
	if rows != nil {
		t.Errorf("rows = %+v, want nil without a history store", rows)
	}
}

func TestValidateImageProblems(t *testing.T) {
	svc := newTestService(t, "Golden")
	ctx := context.Background()

	check, err := svc.ValidateImage(ctx, 1)
	if err != nil {
		t.Fatalf("ValidateImage failed: %v", err)
	}
	if check.Valid || check.Problem == "" {
		t.Errorf("check = %+v, want a problem for imageless entry", check)
	}

	if _, err := svc.ValidateImage(ctx, 99); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
