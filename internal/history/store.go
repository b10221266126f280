package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one persisted daily assignment.
type Record struct {
	ID         int64
	Day        string
	UserID     string
	EntryID    int64
	EntryName  string
	AssignedAt time.Time
}

// Store keeps the long-term assignment history in SQLite. The daily ledger
// forgets assignments at every rollover; this store does not.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx,
		"SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Append stores a fresh assignment. Re-recording the same day and user
// overwrites the previous row, which absorbs stale-assignment re-picks.
func (s *Store) Append(ctx context.Context, day, userID string, entryID int64, entryName string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (day, user_id, entry_id, entry_name, assigned_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (day, user_id) DO UPDATE SET
            entry_id = excluded.entry_id,
            entry_name = excluded.entry_name,
            assigned_at = excluded.assigned_at`,
		day, userID, entryID, entryName, now)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// ForUser returns the user's most recent assignments, newest first.
// A limit of zero or less means no limit.
func (s *Store) ForUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	query := `SELECT id, day, user_id, entry_id, entry_name, assigned_at
              FROM assignments WHERE user_id = ? ORDER BY day DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryRecords(ctx, query, args...)
}

// ForDay returns every assignment made on the given calendar day.
func (s *Store) ForDay(ctx context.Context, day string) ([]Record, error) {
	return s.queryRecords(ctx,
		`SELECT id, day, user_id, entry_id, entry_name, assigned_at
         FROM assignments WHERE day = ? ORDER BY assigned_at`, day)
}

// Count returns the total number of stored assignments.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM assignments").Scan(&count); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return count, nil
}

// EntryFrequency returns how many times each entry id has been assigned.
func (s *Store) EntryFrequency(ctx context.Context) (map[int64]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT entry_id, COUNT(1) FROM assignments GROUP BY entry_id")
	if err != nil {
		return nil, fmt.Errorf("query frequency: %w", err)
	}
	defer rows.Close()

	freq := make(map[int64]int64)
	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan frequency row: %w", err)
		}
		freq[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frequency rows: %w", err)
	}
	return freq, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var assignedAt string
		if err := rows.Scan(&rec.ID, &rec.Day, &rec.UserID, &rec.EntryID, &rec.EntryName, &assignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, assignedAt); parseErr == nil {
			rec.AssignedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment rows: %w", err)
	}
	return records, nil
}
