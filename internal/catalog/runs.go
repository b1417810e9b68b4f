package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status values recorded for a run.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one row of history.
type Run struct {
	ID         int64
	RunID      string
	Direction  string
	Input      string
	Output     string
	Transducer string
	Resolution string
	Frames     int
	Skipped    int
	Held       int
	Dropped    int
	Truncated  int
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall time of a finished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counters carries the per-run tallies written by Finish.
type Counters struct {
	Frames    int
	Skipped   int
	Held      int
	Dropped   int
	Truncated int
}

const runColumns = "id, run_id, direction, input_path, output_path, transducer, resolution, frames, skipped, held, dropped, truncated, status, error_message, started_at, finished_at"

// Start records a run in the running state.
func (s *Store) Start(ctx context.Context, run Run) (*Run, error) {
	if run.RunID == "" {
		return nil, errors.New("run id is empty")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, direction, input_path, output_path, transducer, resolution, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Direction,
		run.Input,
		run.Output,
		run.Transducer,
		nullableString(run.Resolution),
		StatusRunning,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, run.RunID)
}

// SetResolution records the grid once a decode has discovered it.
func (s *Store) SetResolution(ctx context.Context, runID, resolution string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET resolution = ? WHERE run_id = ?`, nullableString(resolution), runID)
	if err != nil {
		return fmt.Errorf("update run resolution: %w", err)
	}
	return nil
}

// Finish completes a run with its counters. A non-nil runErr marks it failed.
func (s *Store) Finish(ctx context.Context, runID string, counters Counters, runErr error) error {
	status := StatusSucceeded
	var message string
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET frames = ?, skipped = ?, held = ?, dropped = ?, truncated = ?,
             status = ?, error_message = ?, finished_at = ?
         WHERE run_id = ?`,
		counters.Frames,
		counters.Skipped,
		counters.Held,
		counters.Dropped,
		counters.Truncated,
		status,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// Get fetches a run by its run ID. A missing run returns (nil, nil).
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Prune deletes finished runs that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
