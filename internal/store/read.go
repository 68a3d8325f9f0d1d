package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/simtest/internal/snapshot"
)

const runColumns = `id, config, started_at, finished_at, status, end_time, steps, snapshots, live_events, error`

// GetRun returns the run with the given id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every run ordered by start time, then id.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSnapshots returns the snapshot records of a run, optionally limited
// to one stream. Ordered by seq ASC, stream COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no records exist.
func (s *Store) ReadSnapshots(ctx context.Context, runID string, stream *snapshot.Stream) ([]snapshot.Record, error) {
	query := `
		SELECT run_id, stream, seq, time, state
		FROM snapshots
		WHERE run_id = ?`
	args := []any{runID}
	if stream != nil {
		query += ` AND stream = ?`
		args = append(args, stream.String())
	}
	query += `
		ORDER BY seq ASC, stream COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	records := []snapshot.Record{}
	for rows.Next() {
		var (
			rec        snapshot.Record
			streamName string
		)
		if err := rows.Scan(&rec.RunID, &streamName, &rec.Seq, &rec.Time, &rec.State); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if rec.Stream, err = snapshot.ParseStream(streamName); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		status     string
		endTime    sql.NullFloat64
		steps      sql.NullInt64
		snapshots  sql.NullInt64
		liveEvents sql.NullInt64
		errText    sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Config, &startedAt, &finishedAt, &status,
		&endTime, &steps, &snapshots, &liveEvents, &errText); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt.String); err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	run.Status = RunStatus(status)
	run.EndTime = endTime.Float64
	run.Steps = steps.Int64
	run.Snapshots = snapshots.Int64
	run.LiveEvents = int(liveEvents.Int64)
	run.Error = errText.String
	return run, nil
}
