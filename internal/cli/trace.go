package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simtest/internal/snapshot"
	"github.com/roach88/simtest/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Stream   string // optional - filter to one stream
}

// TraceResult holds the snapshots of one run.
type TraceResult struct {
	Run     store.Run         `json:"run"`
	Records []snapshot.Record `json:"records"`
	stream  bool
}

// String renders the records in the .dat layout. Without a stream filter
// each line is prefixed with its stream name.
func (r TraceResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s, %d snapshots)", r.Run.ID, r.Run.Status, r.Run.Snapshots)
	for _, rec := range r.Records {
		b.WriteByte('\n')
		if !r.stream {
			fmt.Fprintf(&b, "%-10s ", rec.Stream)
		}
		b.WriteString(rec.Line())
	}
	return b.String()
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the snapshots recorded for a run",
		Long: `Print the snapshots a run recorded in the SQLite database.

Records are ordered by snapshot sequence. With --stream only the
controller, proxy or model records are printed, in the same layout as the
corresponding .dat file.

Examples:
  simtest trace --db ./runs.db --run 0190f3c2-...
  simtest trace --db ./runs.db --run 0190f3c2-... --stream model
  simtest trace --db ./runs.db --run 0190f3c2-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Stream, "stream", "", "filter to one stream (controller|proxy|model)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	var filter *snapshot.Stream
	if opts.Stream != "" {
		st, err := snapshot.ParseStream(opts.Stream)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --stream", err)
		}
		filter = &st
	}

	db, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get run", err)
	}

	recs, err := db.ReadSnapshots(ctx, opts.RunID, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshots", err)
	}
	return formatter.Success(TraceResult{Run: run, Records: recs, stream: filter != nil})
}
