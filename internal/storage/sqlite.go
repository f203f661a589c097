// Package storage provides SQLite-backed persistence for the verification
// engine: the tabular dataset store, the durable progress state and the
// append-only notification queue.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/masahif/linkmamori/internal/checker"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Property store keys for the persisted progress cursor.
const (
	metaDatasetNames = "dataset_names"
	metaDatasetIndex = "current_dataset_index"
	metaCurrentRow   = "current_row"
)

// SQLiteStorage implements checker.DatasetStore, checker.StateStore and
// checker.FailureQueue on a single SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

var (
	_ checker.DatasetStore = (*SQLiteStorage)(nil)
	_ checker.StateStore   = (*SQLiteStorage)(nil)
	_ checker.FailureQueue = (*SQLiteStorage)(nil)
)

// NewSQLiteStorage opens the database and bootstraps the schema.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStorage{db: db}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000", // 30 second timeout for locks
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ListDatasets returns the dataset names present in the store, sorted.
func (s *SQLiteStorage) ListDatasets() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT dataset FROM records ORDER BY dataset")
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dataset name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DatasetExists reports whether any rows exist under the given name.
func (s *SQLiteStorage) DatasetExists(name string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM records WHERE dataset = ?)", name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check dataset %s: %w", name, err)
	}
	return exists, nil
}

// LastDataRow counts the rows with a non-empty source URL from row 2 on
// and adds the header offset, so trailing empty rows never inflate the
// batch range.
func (s *SQLiteStorage) LastDataRow(name string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM records
		WHERE dataset = ? AND row_num >= 2 AND source_url != ''
	`, name).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count data rows for %s: %w", name, err)
	}
	return count + 1, nil
}

// ReadRecords returns the records in [startRow, endRow], in row order.
// The header row is never returned.
func (s *SQLiteStorage) ReadRecords(name string, startRow, endRow int) ([]checker.Record, error) {
	if startRow < 2 {
		startRow = 2
	}

	rows, err := s.db.Query(`
		SELECT row_num, source_url, target_url FROM records
		WHERE dataset = ? AND row_num BETWEEN ? AND ?
		ORDER BY row_num
	`, name, startRow, endRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read records for %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	var records []checker.Record
	for rows.Next() {
		var rec checker.Record
		if err := rows.Scan(&rec.Row, &rec.SourceURL, &rec.TargetURL); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// WriteResult overwrites the result cells of one record.
func (s *SQLiteStorage) WriteResult(name string, row int, out checker.Outcome, checkedAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE records SET status = ?, checked_at = ?, remark = ?, color_hint = ?
		WHERE dataset = ? AND row_num = ?
	`, string(out.Status), checkedAt.UTC().Format(time.RFC3339), out.Remark, out.Color, name, row)
	if err != nil {
		return fmt.Errorf("failed to write result for %s row %d: %w", name, row, err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("no record at %s row %d", name, row)
	}
	return nil
}

// ImportRecords replaces a dataset with the given (source, target) pairs.
// Row 1 is written as the header; data rows start at 2. Pairs with an
// empty source are kept as placeholder rows, matching the sheet layout the
// engine resumes over.
func (s *SQLiteStorage) ImportRecords(name string, pairs [][2]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM records WHERE dataset = ?", name); err != nil {
		return fmt.Errorf("failed to clear dataset %s: %w", name, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (dataset, row_num, source_url, target_url)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	if _, err := stmt.Exec(name, 1, "source_url", "target_url"); err != nil {
		return fmt.Errorf("failed to insert header row: %w", err)
	}

	for i, pair := range pairs {
		if _, err := stmt.Exec(name, i+2, pair[0], pair[1]); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+2, err)
		}
	}

	return tx.Commit()
}

// LoadProgress reads the persisted cursor. Missing or undecodable values
// degrade to fresh-cycle defaults rather than failing: a corrupt cursor
// means the cycle restarts, not that the engine crashes.
func (s *SQLiteStorage) LoadProgress() (checker.ProgressState, error) {
	st := checker.ProgressState{Row: 2}

	namesJSON, err := s.GetMeta(metaDatasetNames)
	if err != nil {
		return st, err
	}
	if namesJSON != "" {
		if err := json.Unmarshal([]byte(namesJSON), &st.DatasetNames); err != nil {
			slog.Warn("Corrupt dataset list in progress state, starting fresh", "error", err)
			return checker.ProgressState{Row: 2}, nil
		}
	}

	st.DatasetIndex = s.metaInt(metaDatasetIndex, 0)
	st.Row = s.metaInt(metaCurrentRow, 2)
	return st, nil
}

// SaveProgress persists the cursor.
func (s *SQLiteStorage) SaveProgress(st checker.ProgressState) error {
	namesJSON, err := json.Marshal(st.DatasetNames)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset names: %w", err)
	}

	if err := s.SetMeta(metaDatasetNames, string(namesJSON)); err != nil {
		return err
	}
	if err := s.SetMeta(metaDatasetIndex, strconv.Itoa(st.DatasetIndex)); err != nil {
		return err
	}
	return s.SetMeta(metaCurrentRow, strconv.Itoa(st.Row))
}

// ClearProgress removes the persisted cursor.
func (s *SQLiteStorage) ClearProgress() error {
	for _, key := range []string{metaDatasetNames, metaDatasetIndex, metaCurrentRow} {
		if _, err := s.db.Exec("DELETE FROM check_meta WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to clear meta %s: %w", key, err)
		}
	}
	return nil
}

// Enqueue appends a failed verification to the notification queue.
func (s *SQLiteStorage) Enqueue(fc checker.FailedCheck) error {
	_, err := s.db.Exec(`
		INSERT INTO notify_queue (source_url, target_url, checked_at, remark)
		VALUES (?, ?, ?, ?)
	`, fc.SourceURL, fc.TargetURL, fc.CheckedAt.UTC().Format(time.RFC3339), fc.Remark)
	if err != nil {
		return fmt.Errorf("failed to enqueue failed check: %w", err)
	}
	return nil
}

// PendingNotifications returns the queued failures in insertion order.
func (s *SQLiteStorage) PendingNotifications() ([]checker.FailedCheck, error) {
	rows, err := s.db.Query(`
		SELECT source_url, target_url, checked_at, remark
		FROM notify_queue ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read notification queue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var checks []checker.FailedCheck
	for rows.Next() {
		var fc checker.FailedCheck
		var checkedAt string
		if err := rows.Scan(&fc.SourceURL, &fc.TargetURL, &checkedAt, &fc.Remark); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, checkedAt); err == nil {
			fc.CheckedAt = t
		}
		checks = append(checks, fc)
	}
	return checks, rows.Err()
}

// GetMeta retrieves a metadata value; missing keys return "".
func (s *SQLiteStorage) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM check_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get meta: %w", err)
	}
	return value, nil
}

// SetMeta stores a metadata value.
func (s *SQLiteStorage) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO check_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set meta: %w", err)
	}
	return nil
}

// metaInt reads an integer meta value, falling back to def on absence or
// garbage.
func (s *SQLiteStorage) metaInt(key string, def int) int {
	raw, err := s.GetMeta(key)
	if err != nil || raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Corrupt integer in progress state, using default", "key", key, "value", raw)
		return def
	}
	return n
}
