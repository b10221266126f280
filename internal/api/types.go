package api

import (
	"time"

	"doroending/internal/catalog"
	"doroending/internal/history"
)

// Ending is the transport-friendly view of a catalog entry.
type Ending struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	Pic         string `json:"pic"`
	PicPath     string `json:"pic_path,omitempty"`
}

// FromEntry converts a catalog entry, resolving the absolute picture path.
func FromEntry(store *catalog.Store, entry catalog.Entry) Ending {
	ending := Ending{
		ID:          entry.ID,
		Name:        entry.Name,
		EnglishName: entry.EnglishName,
		Pic:         entry.Pic,
	}
	if store != nil && entry.HasImage() {
		ending.PicPath = store.ImagePath(entry)
	}
	return ending
}

// FromEntries converts a slice of catalog entries.
func FromEntries(store *catalog.Store, entries []catalog.Entry) []Ending {
	endings := make([]Ending, 0, len(entries))
	for _, entry := range entries {
		endings = append(endings, FromEntry(store, entry))
	}
	return endings
}

// DailyResult carries a daily pick plus whether this call assigned it.
type DailyResult struct {
	Ending Ending `json:"ending"`
	Fresh  bool   `json:"fresh"`
	Date   string `json:"date"`
}

// StatsView merges catalog statistics with ledger and history totals.
type StatsView struct {
	Total           int   `json:"total"`
	MaxID           int64 `json:"max_id"`
	WithImages      int   `json:"with_images"`
	WithoutImages   int   `json:"without_images"`
	AssignedToday   int   `json:"assigned_today"`
	HistoryRecorded int64 `json:"history_recorded"`
}

// ImageCheck is the transport view of an image validation.
type ImageCheck struct {
	Valid    bool   `json:"valid"`
	FileSize int64  `json:"file_size,omitempty"`
	Format   string `json:"format,omitempty"`
	Path     string `json:"path,omitempty"`
	Problem  string `json:"problem,omitempty"`
}

// FrequencyRow reports how often one entry has been picked.
type FrequencyRow struct {
	EntryID   int64  `json:"entry_id"`
	EntryName string `json:"entry_name"`
	Picks     int64  `json:"picks"`
}

// HistoryEntry is the transport view of one recorded assignment.
type HistoryEntry struct {
	Day       string `json:"day"`
	UserID    string `json:"user_id"`
	EntryID   int64  `json:"entry_id"`
	EntryName string `json:"entry_name"`
	Assigned  string `json:"assigned_at"`
}

// FromHistoryRecord converts a stored assignment row.
func FromHistoryRecord(rec history.Record) HistoryEntry {
	entry := HistoryEntry{
		Day:       rec.Day,
		UserID:    rec.UserID,
		EntryID:   rec.EntryID,
		EntryName: rec.EntryName,
	}
	if !rec.AssignedAt.IsZero() {
		entry.Assigned = rec.AssignedAt.Format(time.RFC3339)
	}
	return entry
}
