package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simtest/internal/store"
)

// RunList is the output of the runs command.
type RunList struct {
	Runs []store.Run `json:"runs"`
}

func (l RunList) String() string {
	if len(l.Runs) == 0 {
		return "no runs"
	}
	var b strings.Builder
	for i, r := range l.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %-8s  %s  t=%g steps=%d snapshots=%d",
			r.ID, r.Status, r.StartedAt.Format("2006-01-02T15:04:05Z07:00"), r.EndTime, r.Steps, r.Snapshots)
		if r.Error != "" {
			fmt.Fprintf(&b, "  error=%q", r.Error)
		}
	}
	return b.String()
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a database",
		Example: `  simtest runs --db ./runs.db
  simtest runs --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openExisting(database)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(context.Background())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list runs", err)
			}
			return newFormatter(rootOpts, cmd).Success(RunList{Runs: runs})
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openExisting opens a database that must already exist; Open would
// otherwise create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}
