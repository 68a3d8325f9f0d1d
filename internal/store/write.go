package store

import (
	"context"
	"fmt"

	"github.com/roach88/simtest/internal/snapshot"
)

// BeginRun records the start of a run.
// Starting the same run id twice is an error.
func (s *Store) BeginRun(ctx context.Context, id, configJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, config, started_at, status)
		VALUES (?, ?, ?, ?)
	`,
		id,
		configJSON,
		s.now().UTC().Format(timeLayout),
		string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun stores the summary of a run. A non-nil sum.Err marks the run
// failed.
func (s *Store) FinishRun(ctx context.Context, id string, sum Summary) error {
	status := StatusFinished
	var errText any
	if sum.Err != nil {
		status = StatusFailed
		errText = sum.Err.Error()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, status = ?, end_time = ?, steps = ?, snapshots = ?, live_events = ?, error = ?
		WHERE id = ?
	`,
		s.now().UTC().Format(timeLayout),
		string(status),
		sum.EndTime,
		sum.Steps,
		sum.Snapshots,
		sum.LiveEvents,
		errText,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// WriteSnapshot inserts one snapshot record.
// Uses ON CONFLICT DO NOTHING for idempotency - rewriting the same
// (run, stream, seq) is silently ignored.
//
// The record's run must exist (foreign key constraint).
func (s *Store) WriteSnapshot(ctx context.Context, rec snapshot.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, stream, seq, time, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stream, seq) DO NOTHING
	`,
		rec.RunID,
		rec.Stream.String(),
		rec.Seq,
		rec.Time,
		rec.State,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// SnapshotSink adapts a Store to snapshot.Sink.
// Close does not close the Store; its owner does.
type SnapshotSink struct {
	store *Store
}

// NewSnapshotSink returns a sink writing into s.
func NewSnapshotSink(s *Store) *SnapshotSink {
	return &SnapshotSink{store: s}
}

// Write implements snapshot.Sink.
func (k *SnapshotSink) Write(ctx context.Context, rec snapshot.Record) error {
	return k.store.WriteSnapshot(ctx, rec)
}

// Close implements snapshot.Sink.
func (k *SnapshotSink) Close() error {
	return nil
}
