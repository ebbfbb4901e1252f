// Package store provides a SQLite-backed archive of processed RUR reports.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/rurhook/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrJobNotFound is returned by LoadJob for a job with no stored report.
var ErrJobNotFound = errors.New("job not found")

// Store archives per-job resource mappings.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Report is one processed report ready to be archived.
type Report struct {
	JobID     string
	FilePath  string
	Lines     int
	Records   int
	Mapping   model.ResultMapping
	MtimeNs   int64
	SizeBytes int64
}

// Job is a stored report with its resources.
type Job struct {
	JobID       string              `json:"job_id"`
	FilePath    string              `json:"file_path,omitempty"`
	Lines       int                 `json:"lines"`
	Records     int                 `json:"records"`
	ProcessedAt time.Time           `json:"processed_at"`
	Resources   model.ResultMapping `json:"resources"`
}

// JobSummary is one row of ListJobs.
type JobSummary struct {
	JobID       string
	Resources   int
	ProcessedAt time.Time
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// Record stores a job's mapping, replacing any previous one.
func (s *Store) Record(ctx context.Context, jobID string, m model.ResultMapping) error {
	return s.SaveReport(ctx, Report{JobID: jobID, Mapping: m})
}

// SaveReport stores a processed report and, when FilePath is set, its file
// tracking info, all in one transaction.
func (s *Store) SaveReport(ctx context.Context, r Report) error {
	if r.JobID == "" {
		return errors.New("store: report has no job id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO reports
		(job_id, file_path, lines, records, resources, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.JobID, r.FilePath, r.Lines, r.Records, len(r.Mapping), now,
	)
	if err != nil {
		return err
	}

	// INSERT OR REPLACE on reports cascades, but be explicit.
	if _, err = tx.ExecContext(ctx, "DELETE FROM resources WHERE job_id = ?", r.JobID); err != nil {
		return err
	}

	for _, name := range r.Mapping.Names() {
		_, err = tx.ExecContext(ctx, `INSERT INTO resources (job_id, name, value) VALUES (?, ?, ?)`,
			r.JobID, name, r.Mapping[name])
		if err != nil {
			return err
		}
	}

	if r.FilePath != "" {
		if err := trackFile(ctx, tx, r.FilePath, r.MtimeNs, r.SizeBytes); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TrackFile records a file as seen without storing a report for it.
func (s *Store) TrackFile(ctx context.Context, path string, mtimeNs, sizeBytes int64) error {
	return trackFile(ctx, s.db, path, mtimeNs, sizeBytes)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func trackFile(ctx context.Context, db execer, path string, mtimeNs, sizeBytes int64) error {
	_, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, path, mtimeNs, sizeBytes)
	return err
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (s *Store) GetTrackedFiles(ctx context.Context) (map[string]FileInfo, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// LoadJob reads one stored job with its resources.
func (s *Store) LoadJob(ctx context.Context, jobID string) (*Job, error) {
	var (
		j         Job
		filePath  sql.NullString
		processed string
	)
	err := s.db.QueryRowContext(ctx, `SELECT job_id, file_path, lines, records, processed_at
		FROM reports WHERE job_id = ?`, jobID).
		Scan(&j.JobID, &filePath, &j.Lines, &j.Records, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, err
	}
	if filePath.Valid {
		j.FilePath = filePath.String
	}
	j.ProcessedAt, _ = time.Parse(time.RFC3339, processed)

	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM resources WHERE job_id = ?", jobID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	j.Resources = make(model.ResultMapping)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		j.Resources[name] = value
	}
	return &j, rows.Err()
}

// ListJobs returns the most recently processed jobs, newest first. A limit
// of zero or less returns every job.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]JobSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT job_id, resources, processed_at
		FROM reports ORDER BY processed_at DESC, job_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []JobSummary
	for rows.Next() {
		var js JobSummary
		var processed string
		if err := rows.Scan(&js.JobID, &js.Resources, &processed); err != nil {
			return nil, err
		}
		js.ProcessedAt, _ = time.Parse(time.RFC3339, processed)
		jobs = append(jobs, js)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job and its resources.
func (s *Store) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE job_id = ?", jobID)
	return err
}

// JobCount returns the number of stored jobs.
func (s *Store) JobCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}
