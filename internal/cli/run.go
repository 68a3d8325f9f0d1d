package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/simtest/internal/building"
	"github.com/roach88/simtest/internal/config"
	"github.com/roach88/simtest/internal/control"
	"github.com/roach88/simtest/internal/event"
	"github.com/roach88/simtest/internal/metrics"
	"github.com/roach88/simtest/internal/network"
	"github.com/roach88/simtest/internal/publish"
	"github.com/roach88/simtest/internal/snapshot"
	"github.com/roach88/simtest/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	EndTime  float64 // overrides run.end_time when > 0
	OutDir   string  // overrides outputs.dir
	Database string  // overrides outputs.database

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs snapshot.RunIDGenerator
}

// RunSummary is printed when a run finishes.
type RunSummary struct {
	RunID      string  `json:"run_id"`
	EndTime    float64 `json:"end_time"`
	Steps      int64   `json:"steps"`
	Snapshots  int64   `json:"snapshots"`
	LiveEvents int     `json:"live_events"`
	OutDir     string  `json:"out_dir"`
	Published  int     `json:"published,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s finished at t=%g\n", s.RunID, s.EndTime)
	fmt.Fprintf(&b, "  steps:       %d\n", s.Steps)
	fmt.Fprintf(&b, "  snapshots:   %d (in %s)\n", s.Snapshots, s.OutDir)
	fmt.Fprintf(&b, "  live events: %d", s.LiveEvents)
	if s.Published > 0 {
		fmt.Fprintf(&b, "\n  published:   %d", s.Published)
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run a control test",
		Long: `Run the deadband controller against the zone model described by a
configuration file.

Snapshots are written to the output directory, and to the SQLite database
and Kafka topic when those are configured. The run stops at run.end_time
or on Ctrl-C.

Example:
  simtest run ./run.yaml
  simtest run ./run.yaml --end 48 --out ./out --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.EndTime, "end", 0, "simulation end time (overrides run.end_time)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "snapshot output directory (overrides outputs.dir)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides outputs.database)")

	return cmd
}

func runSimulation(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		return reportConfigError(formatter, err)
	}
	if opts.EndTime > 0 {
		cfg.Run.EndTime = opts.EndTime
	}
	if opts.OutDir != "" {
		cfg.Outputs.Dir = opts.OutDir
	}
	if opts.Database != "" {
		cfg.Outputs.Database = opts.Database
	}

	logger, err := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log config", err)
	}

	arena := event.NewArena()
	model, err := building.NewZoneModel(cfg.ZoneModel(), arena, logger)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid building config", err)
	}
	alg, err := control.NewDeadband(cfg.Deadband(), logger)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid control config", err)
	}

	files, err := snapshot.NewFileSink(cfg.Outputs.Dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output files", err)
	}
	sinks := []snapshot.Sink{files}

	var st *store.Store
	if cfg.Outputs.Database != "" {
		logger.Info("opening database", "path", cfg.Outputs.Database)
		st, err = store.Open(cfg.Outputs.Database)
		if err != nil {
			_ = files.Close()
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		sinks = append(sinks, store.NewSnapshotSink(st))
	}

	var kafka *publish.KafkaSink
	if pc, ok := cfg.Publish(); ok {
		kafka, err = publish.NewKafkaSink(pc, logger)
		if err != nil {
			_ = files.Close()
			return WrapExitError(ExitCommandError, "failed to configure kafka", err)
		}
		sinks = append(sinks, kafka)
	}
	sink := snapshot.NewMultiSink(sinks...)

	rec := metrics.NewPrometheusRecorder(nil)
	netOpts := []network.Option{
		network.WithLogger(logger),
		network.WithRecorder(rec),
	}
	if opts.RunIDs != nil {
		netOpts = append(netOpts, network.WithRunIDGenerator(opts.RunIDs))
	}
	n, err := network.New(cfg.Network(), alg, model, arena, sink, netOpts...)
	if err != nil {
		_ = sink.Close()
		return WrapExitError(ExitFailure, "failed to build network", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if st != nil {
		cfgJSON, err := cfg.JSON()
		if err == nil {
			err = st.BeginRun(context.WithoutCancel(ctx), n.RunID(), cfgJSON)
		}
		if err != nil {
			_ = n.Close()
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	formatter.VerboseLog("run %s: %s until t=%g", n.RunID(), path, cfg.Run.EndTime)
	res, runErr := n.Run(ctx, cfg.Run.EndTime)
	if closeErr := n.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	if st != nil {
		// The run context may already be cancelled; the summary is still recorded.
		finishCtx, finishCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := st.FinishRun(finishCtx, n.RunID(), store.Summary{
			EndTime:    res.EndTime,
			Steps:      res.Steps,
			Snapshots:  res.Snapshots,
			LiveEvents: res.LiveEvents,
			Err:        runErr,
		})
		finishCancel()
		if err != nil {
			logger.Error("failed to record run summary", "run_id", n.RunID(), "error", err)
		}
	}

	if cfg.Outputs.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.Outputs.MetricsFile); err != nil && runErr == nil {
			runErr = WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if runErr != nil {
		var exitErr *ExitError
		if errors.As(runErr, &exitErr) {
			return exitErr
		}
		if errors.Is(runErr, context.Canceled) {
			return WrapExitError(ExitFailure, fmt.Sprintf("run %s interrupted at t=%g", n.RunID(), res.EndTime), runErr)
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("run %s failed", n.RunID()), runErr)
	}

	summary := RunSummary{
		RunID:      res.RunID,
		EndTime:    res.EndTime,
		Steps:      res.Steps,
		Snapshots:  res.Snapshots,
		LiveEvents: res.LiveEvents,
		OutDir:     cfg.Outputs.Dir,
	}
	if kafka != nil {
		summary.Published = kafka.Sent()
	}
	return formatter.Success(summary)
}

// newLogger builds the slog logger for a run. --verbose forces debug level.
func newLogger(cfg config.LogConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	}
	return slog.New(slog.NewTextHandler(w, hopts)), nil
}

// reportConfigError prints every config issue and returns the matching
// exit error.
func reportConfigError(f *OutputFormatter, err error) error {
	var verr *config.ValidationError
	if !errors.As(err, &verr) || len(verr.Issues) == 0 {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	code := ExitFailure
	if len(verr.Issues) > 0 && verr.Issues[0].Code == config.ErrCodeRead {
		code = ExitCommandError
	}
	if f.Format == "json" {
		_ = f.Error(verr.Issues[0].Code, "invalid config", verr.Issues)
	} else {
		for _, is := range verr.Issues {
			_ = f.Error(is.Code, strings.TrimPrefix(is.String(), is.Code+": "), nil)
		}
	}
	return WrapExitError(code, "failed to load config", err)
}
