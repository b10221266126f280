package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"doroending/internal/catalog"
	"doroending/internal/daily"
	"doroending/internal/history"
	"doroending/internal/logging"
)

// Service is the operation surface shared by the IPC server and the CLI's
// direct mode. It owns persistence ordering: every mutation is flushed to
// disk before the call returns.
type Service struct {
	catalog *catalog.Store
	ledger  *daily.Ledger
	history *history.Store
	logger  *slog.Logger
}

// NewService wires the stores together. The history store may be nil, in
// which case picks are served without long-term recording.
func NewService(cat *catalog.Store, ledger *daily.Ledger, hist *history.Store, logger *slog.Logger) (*Service, error) {
	if cat == nil {
		return nil, errors.New("api: catalog required")
	}
	if ledger == nil {
		return nil, errors.New("api: daily ledger required")
	}
	return &Service{
		catalog: cat,
		ledger:  ledger,
		history: hist,
		logger:  logging.NewComponentLogger(logger, "api"),
	}, nil
}

// Catalog exposes the underlying store for read-side helpers.
func (s *Service) Catalog() *catalog.Store {
	return s.catalog
}

// DailyPick returns the user's ending for today. Fresh assignments are
// recorded in the history store; a recording failure is logged but does not
// fail the pick.
func (s *Service) DailyPick(ctx context.Context, userID string) (DailyResult, error) {
	entry, fresh, err := s.ledger.Pick(userID)
	if err != nil {
		return DailyResult{}, err
	}

	if fresh && s.history != nil {
		day := s.ledger.CurrentDate()
		if histErr := s.history.Append(ctx, day, userID, entry.ID, entry.Name); histErr != nil {
			s.logger.Warn("history recording failed",
				logging.String(logging.FieldUserID, userID),
				logging.Int64(logging.FieldEntryID, entry.ID),
				logging.Error(histErr))
		}
	}

	return DailyResult{
		Ending: FromEntry(s.catalog, entry),
		Fresh:  fresh,
		Date:   s.ledger.CurrentDate(),
	}, nil
}

// AddEntry creates a catalog entry, optionally with an image, and persists
// the catalog.
func (s *Service) AddEntry(ctx context.Context, name, englishName string, image *catalog.ImageSource) (Ending, error) {
	entry, err := s.catalog.Add(ctx, name, englishName, image)
	if err != nil {
		return Ending{}, err
	}
	if err := s.catalog.Save(); err != nil {
		return Ending{}, fmt.Errorf("persist catalog: %w", err)
	}
	return FromEntry(s.catalog, entry), nil
}

// RemoveEntry deletes the entry matching an id or display name.
func (s *Service) RemoveEntry(ctx context.Context, target string) (Ending, error) {
	entry, err := s.catalog.Remove(target)
	if err != nil {
		return Ending{}, err
	}
	if err := s.catalog.Save(); err != nil {
		return Ending{}, fmt.Errorf("persist catalog: %w", err)
	}
	return FromEntry(s.catalog, entry), nil
}

// UpdateEntry applies field changes to an entry by id.
func (s *Service) UpdateEntry(ctx context.Context, id int64, fields map[string]string) (Ending, error) {
	entry, err := s.catalog.Update(id, fields)
	if err != nil {
		return Ending{}, err
	}
	if err := s.catalog.Save(); err != nil {
		return Ending{}, fmt.Errorf("persist catalog: %w", err)
	}
	return FromEntry(s.catalog, entry), nil
}

// ListEntries returns every entry in stored order.
func (s *Service) ListEntries(ctx context.Context) []Ending {
	return FromEntries(s.catalog, s.catalog.All())
}

// SearchEntries returns entries whose names contain the keyword.
func (s *Service) SearchEntries(ctx context.Context, keyword string) []Ending {
	return FromEntries(s.catalog, s.catalog.Search(keyword))
}

// ShowEntry returns one entry. An all-digits target is resolved as an id,
// anything else as a display name, matching Remove's convention.
func (s *Service) ShowEntry(ctx context.Context, target string) (Ending, error) {
	if id, ok := catalog.ParseID(target); ok {
		if entry, found := s.catalog.ByID(id); found {
			return FromEntry(s.catalog, entry), nil
		}
	} else if entry, found := s.catalog.ByName(target); found {
		return FromEntry(s.catalog, entry), nil
	}
	return Ending{}, fmt.Errorf("%w: %q", catalog.ErrNotFound, target)
}

// Stats merges catalog, ledger, and history counters.
func (s *Service) Stats(ctx context.Context) (StatsView, error) {
	catStats := s.catalog.Statistics()
	view := StatsView{
		Total:         catStats.Total,
		MaxID:         catStats.MaxID,
		WithImages:    catStats.WithImages,
		WithoutImages: catStats.WithoutImages,
		AssignedToday: s.ledger.AssignmentCount(),
	}
	if s.history != nil {
		count, err := s.history.Count(ctx)
		if err != nil {
			return view, fmt.Errorf("history count: %w", err)
		}
		view.HistoryRecorded = count
	}
	return view, nil
}

// Cleanup removes orphaned image files and returns the deleted filenames.
func (s *Service) Cleanup(ctx context.Context) ([]string, error) {
	return s.catalog.CleanupImages()
}

// ValidateImage checks the stored image for the entry with the given id.
// Validation failures surface in the Problem field, not as errors; only
// an unknown id is an error.
func (s *Service) ValidateImage(ctx context.Context, id int64) (ImageCheck, error) {
	validation, err := s.catalog.ValidateImage(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ImageCheck{}, err
		}
		return ImageCheck{
			FileSize: validation.FileSize,
			Format:   validation.Format,
			Path:     validation.Path,
			Problem:  err.Error(),
		}, nil
	}
	return ImageCheck{
		Valid:    validation.Valid,
		FileSize: validation.FileSize,
		Format:   validation.Format,
		Path:     validation.Path,
	}, nil
}

// History returns past assignments, optionally filtered by user or day.
// Returns nil without error when no history store is configured.
func (s *Service) History(ctx context.Context, userID, day string, limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	var (
		records []history.Record
		err     error
	)
	switch {
	case userID != "":
		records, err = s.history.ForUser(ctx, userID, limit)
	case day != "":
		records, err = s.history.ForDay(ctx, day)
	default:
		records, err = s.history.ForDay(ctx, s.ledger.CurrentDate())
	}
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, FromHistoryRecord(rec))
	}
	return entries, nil
}

// EntryFrequency reports pick counts per entry, most picked first. Entries
// removed from the catalog keep their rows, named by id only. Returns nil
// without error when no history store is configured.
func (s *Service) EntryFrequency(ctx context.Context) ([]FrequencyRow, error) {
	if s.history == nil {
		return nil, nil
	}
	freq, err := s.history.EntryFrequency(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]FrequencyRow, 0, len(freq))
	for id, picks := range freq {
		row := FrequencyRow{EntryID: id, Picks: picks}
		if entry, found := s.catalog.ByID(id); found {
			row.EntryName = entry.Name
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Picks != rows[j].Picks {
			return rows[i].Picks > rows[j].Picks
		}
		return rows[i].EntryID < rows[j].EntryID
	})
	return rows, nil
}
