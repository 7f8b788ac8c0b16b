package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one conversion attempt.
type Run struct {
	ID           string
	InputPath    string
	InputHash    string
	OutputPath   string
	Backend      string
	Model        string
	Status       Status
	ChunkCount   int
	CaptionCount int
	DurationMs   int64
	ErrorKind    string
	Error        string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Elapsed returns the wall time of a finished run, or 0.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome carries the fields recorded when a run finishes.
type Outcome struct {
	ChunkCount   int
	CaptionCount int
	DurationMs   int64
	Err          error
	ErrorKind    string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Begin inserts a running record. An empty run.ID is assigned.
func (s *Store) Begin(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("history: run required")
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning

	_, err := s.exec(ctx,
		`INSERT INTO runs (
            id, input_path, input_hash, output_path, backend, model, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.InputPath,
		nullableString(run.InputHash),
		run.OutputPath,
		run.Backend,
		nullableString(run.Model),
		string(run.Status),
		run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Finish marks the run succeeded or failed depending on outcome.Err.
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	status := StatusSucceeded
	var message any
	var kind any
	if outcome.Err != nil {
		status = StatusFailed
		message = outcome.Err.Error()
		kind = nullableString(outcome.ErrorKind)
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, chunk_count = ?, caption_count = ?, duration_ms = ?,
            error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		string(status),
		outcome.ChunkCount,
		outcome.CaptionCount,
		outcome.DurationMs,
		kind,
		message,
		time.Now().UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: %s not found", id)
	}
	return nil
}

const runColumns = `id, input_path, input_hash, output_path, backend, model, status,
    chunk_count, caption_count, duration_ms, error_kind, error_message, started_at, finished_at`

// Get returns the run with id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
}

// FindByHash returns runs whose input matched hash, newest first.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]Run, error) {
	if hash == "" {
		return nil, nil
	}
	return s.query(ctx, "SELECT "+runColumns+" FROM runs WHERE input_hash = ? ORDER BY started_at DESC", hash)
}

// CountByHash returns how many runs share each of the given hashes.
func (s *Store) CountByHash(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT input_hash, COUNT(1) FROM runs WHERE input_hash IS NOT NULL GROUP BY input_hash")
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var hash string
		var n int
		if err := rows.Scan(&hash, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[hash] = n
	}
	return counts, rows.Err()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run        Run
		status     string
		inputHash  sql.NullString
		model      sql.NullString
		errorKind  sql.NullString
		errorMsg   sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.InputPath, &inputHash, &run.OutputPath, &run.Backend, &model, &status,
		&run.ChunkCount, &run.CaptionCount, &run.DurationMs, &errorKind, &errorMsg, &startedAt, &finishedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = Status(status)
	run.InputHash = inputHash.String
	run.Model = model.String
	run.ErrorKind = errorKind.String
	run.Error = errorMsg.String
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return &run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
