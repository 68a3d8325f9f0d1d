package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simtest/internal/snapshot"
	"github.com/roach88/simtest/internal/testutil"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a fresh file-backed store with a fake clock.
func createTestStore(t *testing.T) (*Store, *testutil.FakeClock) {
	t.Helper()
	clock := testutil.NewFakeClock(epoch)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithNow(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"runs", "snapshots"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.BeginRun(context.Background(), "r", "{}"))
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s, _ := createTestStore(t)

	pragmas := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"foreign_keys": "1",
	}
	for name, want := range pragmas {
		if err := s.verifyPragma(name, want); err != nil {
			t.Error(err)
		}
	}
}

func TestMigration_IndexExists(t *testing.T) {
	s, _ := createTestStore(t)

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_snapshots_run_time'",
	).Scan(&name)
	require.NoError(t, err)
}

func TestRunLifecycle(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", `{"run":{"end_time":10}}`))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.True(t, run.StartedAt.Equal(epoch))
	assert.True(t, run.FinishedAt.IsZero())
	assert.Equal(t, `{"run":{"end_time":10}}`, run.Config)

	clock.Advance(2 * time.Second)
	require.NoError(t, s.FinishRun(ctx, "run-1", Summary{EndTime: 10, Steps: 42, Snapshots: 11}))

	run, err = s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, run.Status)
	assert.True(t, run.FinishedAt.Equal(epoch.Add(2*time.Second)))
	assert.Equal(t, 10.0, run.EndTime)
	assert.Equal(t, int64(42), run.Steps)
	assert.Equal(t, int64(11), run.Snapshots)
	assert.Empty(t, run.Error)
}

func TestFinishRun_Failed(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, "run-1", "{}"))

	require.NoError(t, s.FinishRun(ctx, "run-1", Summary{Err: errors.New("sink closed")}))

	run, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, "sink closed", run.Error)
}

func TestRunNotFound(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, s.FinishRun(ctx, "missing", Summary{}), ErrRunNotFound)
}

func TestBeginRun_Duplicate(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", "{}"))
	assert.Error(t, s.BeginRun(ctx, "run-1", "{}"))
}

func TestListRuns_Ordered(t *testing.T) {
	s, clock := createTestStore(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	require.NoError(t, s.BeginRun(ctx, "b", "{}"))
	require.NoError(t, s.BeginRun(ctx, "a", "{}"))
	clock.Advance(time.Minute)
	require.NoError(t, s.BeginRun(ctx, "0", "{}"))

	runs, err = s.ListRuns(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "0"}, ids)
}

func TestSnapshots_WriteAndRead(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, "run-1", "{}"))

	sink := NewSnapshotSink(s)
	for seq := int64(1); seq <= 2; seq++ {
		for _, st := range snapshot.Streams {
			rec := snapshot.NewRecord("run-1", st, seq, float64(seq-1)*0.5, st.String())
			require.NoError(t, sink.Write(ctx, rec))
		}
	}
	require.NoError(t, sink.Close())

	all, err := s.ReadSnapshots(ctx, "run-1", nil)
	require.NoError(t, err)
	require.Len(t, all, 6)
	var order []string
	for _, r := range all {
		order = append(order, r.Stream.String())
	}
	assert.Equal(t, []string{"controller", "model", "proxy", "controller", "model", "proxy"}, order)

	model := snapshot.StreamModel
	only, err := s.ReadSnapshots(ctx, "run-1", &model)
	require.NoError(t, err)
	require.Len(t, only, 2)
	assert.Equal(t, "0.5 model", only[1].Line())
}

func TestWriteSnapshot_Idempotent(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.BeginRun(ctx, "run-1", "{}"))

	rec := snapshot.NewRecord("run-1", snapshot.StreamProxy, 1, 0, "first")
	require.NoError(t, s.WriteSnapshot(ctx, rec))
	rec.State = "second"
	require.NoError(t, s.WriteSnapshot(ctx, rec))

	got, err := s.ReadSnapshots(ctx, "run-1", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].State)
}

func TestWriteSnapshot_RequiresRun(t *testing.T) {
	s, _ := createTestStore(t)

	err := s.WriteSnapshot(context.Background(), snapshot.NewRecord("ghost", snapshot.StreamModel, 1, 0, "x"))
	assert.Error(t, err, "foreign key enforced")
}
