package daily

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"doroending/internal/catalog"
	"doroending/internal/fileutil"
	"doroending/internal/logging"
)

// DateFormat is the calendar day layout persisted in the date record.
const DateFormat = "2006-01-02"

// ErrNoData reports a fresh pick against an empty catalog.
var ErrNoData = errors.New("no endings available")

// dateRecord is the persisted shape of the effective-date marker.
type dateRecord struct {
	Date string `json:"date"`
}

// Ledger maps user ids to their entry for the current day.
type Ledger struct {
	dateFile string
	mapFile  string
	catalog  *catalog.Store
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	currentDate string
	assignments map[string]int64
}

// Options configures a Ledger.
type Options struct {
	DateFile string
	MapFile  string
	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// New constructs a Ledger over the given catalog.
func New(opts Options, cat *catalog.Store, logger *slog.Logger) (*Ledger, error) {
	if cat == nil {
		return nil, errors.New("daily: catalog required")
	}
	if opts.DateFile == "" || opts.MapFile == "" {
		return nil, errors.New("daily: date and map file paths required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		dateFile:    opts.DateFile,
		mapFile:     opts.MapFile,
		catalog:     cat,
		logger:      logging.NewComponentLogger(logger, "daily"),
		now:         now,
		assignments: make(map[string]int64),
	}, nil
}

// Load reads the persisted date marker and assignment table. Missing or
// unparsable files start the ledger empty; neither is fatal.
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var record dateRecord
	if err := readJSON(l.dateFile, &record); err != nil {
		l.logger.Warn("date record unavailable, starting empty",
			logging.String(logging.FieldPath, l.dateFile),
			logging.Error(err))
	}
	l.currentDate = record.Date

	assignments := make(map[string]int64)
	if err := readJSON(l.mapFile, &assignments); err != nil {
		l.logger.Warn("assignment table unavailable, starting empty",
			logging.String(logging.FieldPath, l.mapFile),
			logging.Error(err))
		assignments = make(map[string]int64)
	}
	l.assignments = assignments

	l.logger.Info("ledger loaded",
		logging.String("date", l.currentDate),
		logging.Int("assignments", len(l.assignments)))
	return nil
}

// Pick returns the user's entry for today, assigning one uniformly at
// random on the first lookup of the day. The boolean reports whether this
// call made a fresh assignment. Returns ErrNoData when a fresh pick is
// needed and the catalog is empty.
func (l *Ledger) Pick(userID string) (catalog.Entry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.now().Format(DateFormat)
	if l.currentDate != today {
		if err := l.resetLocked(today); err != nil {
			return catalog.Entry{}, false, err
		}
	}

	if id, ok := l.assignments[userID]; ok {
		if entry, found := l.catalog.ByID(id); found {
			return entry, false, nil
		}
		// The assigned entry was deleted; drop the mapping and re-pick.
		delete(l.assignments, userID)
		l.logger.Debug("stale assignment dropped",
			logging.String(logging.FieldUserID, userID),
			logging.Int64(logging.FieldEntryID, id))
	}

	entries := l.catalog.All()
	if len(entries) == 0 {
		return catalog.Entry{}, false, ErrNoData
	}
	entry := entries[rand.IntN(len(entries))]

	l.assignments[userID] = entry.ID
	if err := writeJSON(l.mapFile, l.assignments); err != nil {
		return catalog.Entry{}, false, fmt.Errorf("persist assignments: %w", err)
	}

	l.logger.Info("daily ending assigned",
		logging.String(logging.FieldUserID, userID),
		logging.Int64(logging.FieldEntryID, entry.ID))
	return entry, true, nil
}

// CurrentDate returns the ledger's effective date.
func (l *Ledger) CurrentDate() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentDate
}

// AssignmentCount returns the number of users assigned today.
func (l *Ledger) AssignmentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.assignments)
}

// resetLocked clears the table for a new day and persists both files.
func (l *Ledger) resetLocked(today string) error {
	l.logger.Info("date rollover, clearing assignments",
		logging.String("previous", l.currentDate),
		logging.String("date", today))

	l.currentDate = today
	l.assignments = make(map[string]int64)

	if err := writeJSON(l.dateFile, dateRecord{Date: today}); err != nil {
		return fmt.Errorf("persist date record: %w", err)
	}
	if err := writeJSON(l.mapFile, l.assignments); err != nil {
		return fmt.Errorf("persist assignments: %w", err)
	}
	return nil
}

func readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file missing: %w", err)
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return fileutil.WriteAtomic(path, data, 0o644)
}
