package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"doroending/internal/fileutil"
	"doroending/internal/imagefetch"
	"doroending/internal/logging"
	"doroending/internal/textutil"
)

// Store manages the catalog document and its image files.
type Store struct {
	dataFile   string
	picDir     string
	maxNameLen int
	fetcher    *imagefetch.Fetcher
	logger     *slog.Logger

	mu    sync.Mutex
	doc   document
	dirty bool
}

// Options configures a Store.
type Options struct {
	DataFile string
	PicDir   string
	// MaxFilenameLength bounds generated image filenames. Zero means 255.
	MaxFilenameLength int
	// Fetcher acquires images for Add. Nil disables URL sources.
	Fetcher *imagefetch.Fetcher
}

// New constructs a Store and ensures the pictures directory exists.
func New(opts Options, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(opts.DataFile) == "" {
		return nil, errors.New("catalog: data file path required")
	}
	if strings.TrimSpace(opts.PicDir) == "" {
		return nil, errors.New("catalog: pictures directory required")
	}
	if opts.MaxFilenameLength <= 0 {
		opts.MaxFilenameLength = 255
	}
	if err := os.MkdirAll(opts.PicDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pictures directory: %w", err)
	}
	return &Store{
		dataFile:   opts.DataFile,
		picDir:     opts.PicDir,
		maxNameLen: opts.MaxFilenameLength,
		fetcher:    opts.Fetcher,
		logger:     logging.NewComponentLogger(logger, "catalog"),
	}, nil
}

// PicDir returns the pictures directory.
func (s *Store) PicDir() string {
	return s.picDir
}

// ImagePath resolves an entry's image filename to its path under the
// pictures directory. Empty when the entry has no image.
func (s *Store) ImagePath(e Entry) string {
	if !e.HasImage() {
		return ""
	}
	return filepath.Join(s.picDir, e.Pic)
}

// Load reads the catalog document into memory. It returns false when the
// file is absent or unparsable; absence is not an error so callers can
// bootstrap an empty catalog. A parse failure never replaces good in-memory
// state.
func (s *Store) Load() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.dataFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Mark dirty so the next Save materializes the file.
			s.dirty = true
			s.logger.Warn("catalog file missing",
				logging.String(logging.FieldPath, s.dataFile),
				logging.String(logging.FieldEventType, "catalog_missing"),
				logging.String(logging.FieldErrorHint, "asset bootstrap or first add will create it"))
			return false, nil
		}
		return false, fmt.Errorf("read catalog: %w", err)
	}

	var loaded document
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Error("catalog file unparsable; keeping in-memory state",
			logging.String(logging.FieldPath, s.dataFile),
			logging.Error(err),
			logging.String(logging.FieldEventType, "catalog_parse_failed"))
		return false, fmt.Errorf("parse catalog: %w", err)
	}
	if loaded.Datas == nil {
		loaded.Datas = []Entry{}
	}

	s.doc = loaded
	s.dirty = false
	s.logger.Info("catalog loaded",
		logging.Int("entries", len(s.doc.Datas)),
		logging.String(logging.FieldPath, s.dataFile))
	return true, nil
}

// Save writes the in-memory document to disk when it holds unsaved changes;
// a clean store is a no-op. The previous file is renamed to a .bak sibling
// first and a rename failure aborts the save, leaving the store dirty.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		s.logger.Debug("catalog unchanged, skipping save")
		return nil
	}

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if err := fileutil.BackupThenReplace(s.dataFile, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	s.dirty = false
	s.logger.Info("catalog saved",
		logging.Int("entries", len(s.doc.Datas)),
		logging.String(logging.FieldPath, s.dataFile))
	return nil
}

// Dirty reports whether the store holds unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// All returns the entries in storage order.
func (s *Store) All() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]Entry, len(s.doc.Datas))
	copy(entries, s.doc.Datas)
	return entries
}

// ByID returns the entry with the given id.
func (s *Store) ByID(id int64) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byIDLocked(id)
}

// ByName returns the entry with the given display name.
func (s *Store) ByName(name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byNameLocked(name)
}

// Search returns all entries whose display or alternate name contains the
// keyword, case-insensitively, in storage order.
func (s *Store) Search(keyword string) []Entry {
	keyword = strings.ToLower(keyword)

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Entry
	for _, entry := range s.doc.Datas {
		if strings.Contains(strings.ToLower(entry.Name), keyword) ||
			strings.Contains(strings.ToLower(entry.EnglishName), keyword) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Statistics summarizes the catalog counters.
func (s *Store) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{Total: s.doc.Total, MaxID: s.doc.MaxID}
	for _, entry := range s.doc.Datas {
		if entry.HasImage() {
			stats.WithImages++
		} else {
			stats.WithoutImages++
		}
	}
	return stats
}

// Add appends a new entry with id max_id+1. The display name must be unique;
// the alternate name is deliberately not checked here (Update checks both).
// When an image source is given it is persisted before the entry is
// committed, and any acquisition failure rejects the whole add.
func (s *Store) Add(ctx context.Context, name, englishName string, image *ImageSource) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNameLocked(name); exists {
		return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	newID := s.doc.MaxID + 1

	picFilename := ""
	if !image.empty() {
		path, err := s.saveImage(ctx, newID, englishName, image)
		if err != nil {
			return Entry{}, err
		}
		picFilename = filepath.Base(path)
	}

	entry := Entry{
		ID:          newID,
		Name:        name,
		EnglishName: englishName,
		Pic:         picFilename,
	}
	s.doc.Datas = append(s.doc.Datas, entry)
	s.doc.MaxID = newID
	s.doc.Total++
	s.dirty = true

	s.logger.Info("ending added",
		logging.Int64(logging.FieldEntryID, newID),
		logging.String("name", name))
	return entry, nil
}

// Remove deletes the entry matching target. An all-digits target is treated
// as an id, anything else as a display name. The backing image file is
// deleted too; its absence is tolerated.
func (s *Store) Remove(target string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, idx, ok := s.resolveLocked(target)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, target)
	}

	if entry.HasImage() {
		picPath := filepath.Join(s.picDir, entry.Pic)
		if err := os.Remove(picPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Entry{}, fmt.Errorf("delete image file: %w", err)
		}
	}

	s.doc.Datas = append(s.doc.Datas[:idx], s.doc.Datas[idx+1:]...)
	s.doc.Total--
	if len(s.doc.Datas) == 0 {
		s.doc.MaxID = 0
	} else if entry.ID == s.doc.MaxID {
		var maxID int64
		for _, e := range s.doc.Datas {
			if e.ID > maxID {
				maxID = e.ID
			}
		}
		s.doc.MaxID = maxID
	}
	s.dirty = true

	s.logger.Info("ending removed",
		logging.Int64(logging.FieldEntryID, entry.ID),
		logging.String("name", entry.Name))
	return entry, nil
}

// Update applies field changes to the entry with the given id. Recognized
// keys are "name" and "english_name"; unknown keys are logged and skipped.
// A value already held by a different entry is rejected. The store is marked
// dirty only when at least one field actually changed.
func (s *Store) Update(id int64, fields map[string]string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, entry := range s.doc.Datas {
		if entry.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Entry{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	entry := s.doc.Datas[idx]

	// Validate every change before applying any.
	if value, ok := fields["name"]; ok && value != entry.Name {
		for _, other := range s.doc.Datas {
			if other.ID != id && other.Name == value {
				return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateName, value)
			}
		}
	}
	if value, ok := fields["english_name"]; ok && value != entry.EnglishName {
		for _, other := range s.doc.Datas {
			if other.ID != id && other.EnglishName == value {
				return Entry{}, fmt.Errorf("%w: %q", ErrDuplicateEnglishName, value)
			}
		}
	}

	updated := false
	for key, value := range fields {
		switch key {
		case "name":
			if entry.Name != value {
				entry.Name = value
				updated = true
			}
		case "english_name":
			if entry.EnglishName != value {
				entry.EnglishName = value
				updated = true
			}
		default:
			s.logger.Warn("skipping unknown update field",
				logging.String("field", key),
				logging.Int64(logging.FieldEntryID, id))
		}
	}

	if updated {
		s.doc.Datas[idx] = entry
		s.dirty = true
		s.logger.Info("ending updated",
			logging.Int64(logging.FieldEntryID, id),
			logging.String("name", entry.Name))
	}
	return entry, nil
}

func (s *Store) byIDLocked(id int64) (Entry, bool) {
	for _, entry := range s.doc.Datas {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

func (s *Store) byNameLocked(name string) (Entry, bool) {
	for _, entry := range s.doc.Datas {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

// resolveLocked maps an id-or-name target to an entry and its index.
func (s *Store) resolveLocked(target string) (Entry, int, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return Entry{}, 0, false
	}
	if id, ok := ParseID(target); ok {
		for i, entry := range s.doc.Datas {
			if entry.ID == id {
				return entry, i, true
			}
		}
		return Entry{}, 0, false
	}
	for i, entry := range s.doc.Datas {
		if entry.Name == target {
			return entry, i, true
		}
	}
	return Entry{}, 0, false
}

// ParseID accepts only all-digit strings.
func ParseID(target string) (int64, bool) {
	for _, r := range target {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// imageStem builds the extension-less image path for a new entry.
func (s *Store) imageStem(id int64, englishName string) string {
	safe := textutil.SanitizeFileName(englishName, s.maxNameLen)
	return filepath.Join(s.picDir, fmt.Sprintf("%08d_%s", id, safe))
}
