package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simtest/internal/testutil"
)

const baseConfig = `run:
  end_time: 2
  snapshot_every: 0
sample:
  frequency: 1
control:
  interval: 0
  stage: 1
building:
  zones: 1
  outdoor_c: 10
  initial_c: 20
  lower_c: 19
  upper_c: 23
  leak_rate: 0.1
  heat_rate: 1
  cool_rate: 1
`

// writeConfig writes baseConfig plus an outputs section rooted at dir and
// returns the config path and the database path.
func writeConfig(t *testing.T, dir string) (string, string) {
	t.Helper()
	dbPath := filepath.Join(dir, "runs.db")
	cfg := baseConfig + "outputs:\n" +
		"  dir: " + filepath.Join(dir, "out") + "\n" +
		"  database: " + dbPath + "\n" +
		"  metrics_file: " + filepath.Join(dir, "simtest.prom") + "\n"
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path, dbPath
}

// runFixture executes a run with a fixed run id and returns the stdout text.
func runFixture(t *testing.T, dir, format, runID string) string {
	t.Helper()
	path, _ := writeConfig(t, dir)

	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      testutil.NewFixedRunIDGenerator(runID),
	}
	require.NoError(t, runSimulation(opts, path, cmd))
	return out.String()
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
