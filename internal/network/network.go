// Package network assembles a control test: sample generator, control
// harness with its building proxy, and a building model, coupled on a DEVS
// digraph and driven by the sequential simulator.
//
// Couplings:
//
//	generator.sample  -> harness.sample, model.sample
//	model.tempData    -> harness.tempData
//	harness.onOffCmd  -> model.onOffCmd
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/simtest/internal/building"
	"github.com/roach88/simtest/internal/control"
	"github.com/roach88/simtest/internal/devs"
	"github.com/roach88/simtest/internal/event"
	"github.com/roach88/simtest/internal/harness"
	"github.com/roach88/simtest/internal/metrics"
	"github.com/roach88/simtest/internal/snapshot"
)

// Component names on the digraph.
const (
	GeneratorName = "generator"
	HarnessName   = "harness"
	ModelName     = "model"
)

// Config holds the run parameters of a network.
type Config struct {
	// SampleFrequency is the sample generator frequency (samples per time unit).
	SampleFrequency float64
	// SnapshotEvery is the spacing of snapshots in simulation time. Zero
	// snapshots after every completed instant.
	SnapshotEvery float64
	// MaxInstantSteps bounds kernel steps at a single simulation time.
	// Zero means DefaultMaxInstantSteps.
	MaxInstantSteps int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if !(c.SampleFrequency > 0) || math.IsInf(c.SampleFrequency, 1) {
		errs = append(errs, fmt.Errorf("%w: %g", harness.ErrInvalidFrequency, c.SampleFrequency))
	}
	if c.SnapshotEvery < 0 || math.IsNaN(c.SnapshotEvery) {
		errs = append(errs, fmt.Errorf("snapshot spacing must be >= 0, got %g", c.SnapshotEvery))
	}
	if c.MaxInstantSteps < 0 {
		errs = append(errs, fmt.Errorf("max instant steps must be >= 0, got %d", c.MaxInstantSteps))
	}
	return errors.Join(errs...)
}

// Option configures a Network.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	recorder  metrics.Recorder
	runIDs    snapshot.RunIDGenerator
	listeners []devs.Listener
	hooks     []building.ActivationHook
}

// WithLogger sets the logger for the network and its components.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithRunIDGenerator sets how the run id is chosen (default UUIDv7).
func WithRunIDGenerator(g snapshot.RunIDGenerator) Option {
	return func(o *options) { o.runIDs = g }
}

// WithListener adds a kernel listener, e.g. a devs.Trace.
func WithListener(l devs.Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

// WithActivationHook adds a hook observing every command the algorithm
// queues on the proxy.
func WithActivationHook(h building.ActivationHook) Option {
	return func(o *options) { o.hooks = append(o.hooks, h) }
}

// Network owns the components of one test run.
//
// The arena passed to New must be the one the model allocates its output
// from; the network allocates the generator's and harness's events from it
// too, so Arena().Live() accounts for every event in flight.
type Network struct {
	cfg    Config
	runID  string
	logger *slog.Logger
	rec    metrics.Recorder

	arena     *event.Arena
	proxy     *building.Proxy
	harness   *harness.ControlHarness
	generator *harness.SampleGenerator
	model     building.Model
	graph     *devs.Digraph
	sim       *devs.Simulator
	sink      snapshot.Sink
	quota     *instantQuota

	snapSeq  int64
	nextSnap float64
	closed   bool
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	EndTime    float64
	Steps      int64
	Snapshots  int64
	LiveEvents int
	Duration   time.Duration
}

// New builds the network. The sink receives every snapshot and is closed
// by Close.
func New(cfg Config, alg control.Algorithm, model building.Model, arena *event.Arena, sink snapshot.Sink, opts ...Option) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("network config: %w", err)
	}
	if alg == nil || model == nil || arena == nil || sink == nil {
		return nil, errors.New("network: algorithm, model, arena and sink are required")
	}

	o := options{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: metrics.NoopRecorder{},
		runIDs:   snapshot.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	hookOpts := make([]building.ProxyOption, 0, len(o.hooks))
	for _, h := range o.hooks {
		hookOpts = append(hookOpts, building.WithActivationHook(h))
	}
	proxy := building.NewProxy(arena, hookOpts...)
	h := harness.NewControlHarness(alg, proxy, arena, harness.WithLogger(o.logger))
	gen, err := harness.NewSampleGenerator(cfg.SampleFrequency, arena)
	if err != nil {
		return nil, err
	}

	g, err := wire(gen, h, model)
	if err != nil {
		return nil, err
	}

	runID := o.runIDs.Generate()
	simOpts := []devs.Option{
		devs.WithLogger(o.logger),
		devs.WithListener(metrics.NewKernelListener(o.recorder)),
	}
	for _, l := range o.listeners {
		simOpts = append(simOpts, devs.WithListener(l))
	}

	n := &Network{
		cfg:       cfg,
		runID:     runID,
		logger:    o.logger.With("run_id", runID),
		rec:       o.recorder,
		arena:     arena,
		proxy:     proxy,
		harness:   h,
		generator: gen,
		model:     model,
		graph:     g,
		sim:       devs.NewSimulator(g, simOpts...),
		sink:      sink,
		quota:     newInstantQuota(cfg.MaxInstantSteps),
	}
	return n, nil
}

func wire(gen, h, model devs.Atomic) (*devs.Digraph, error) {
	g := devs.NewDigraph()
	for _, c := range []struct {
		name string
		a    devs.Atomic
	}{
		{GeneratorName, gen},
		{HarnessName, h},
		{ModelName, model},
	} {
		if err := g.Add(c.name, c.a); err != nil {
			return nil, fmt.Errorf("wire network: %w", err)
		}
	}

	couplings := []struct {
		from   string
		fromCh event.Channel
		to     string
		toCh   event.Channel
	}{
		{GeneratorName, event.Sample, HarnessName, event.Sample},
		{GeneratorName, event.Sample, ModelName, event.Sample},
		{ModelName, event.TempData, HarnessName, event.TempData},
		{HarnessName, event.OnOffCmd, ModelName, event.OnOffCmd},
	}
	for _, c := range couplings {
		if err := g.Couple(c.from, c.fromCh, c.to, c.toCh); err != nil {
			return nil, fmt.Errorf("wire network: %w", err)
		}
	}
	return g, nil
}

// RunID returns the identifier stamped on this run's records.
func (n *Network) RunID() string { return n.runID }

// Arena returns the event arena shared by the components.
func (n *Network) Arena() *event.Arena { return n.arena }

// Proxy returns the harness's building proxy.
func (n *Network) Proxy() *building.Proxy { return n.proxy }

// Harness returns the control harness.
func (n *Network) Harness() *harness.ControlHarness { return n.harness }

// Graph returns the coupled components.
func (n *Network) Graph() *devs.Digraph { return n.graph }

// Now returns the simulation time of the last step.
func (n *Network) Now() float64 { return n.sim.Now() }

// PrintState writes one record per stream (controller, proxy, model) at
// simulation time t.
func (n *Network) PrintState(ctx context.Context, t float64) error {
	n.snapSeq++
	states := [...]string{
		snapshot.StreamController: n.harness.State(),
		snapshot.StreamProxy:      n.proxy.State(),
		snapshot.StreamModel:      n.model.State(),
	}
	for _, st := range snapshot.Streams {
		rec := snapshot.NewRecord(n.runID, st, n.snapSeq, t, states[st])
		if err := n.sink.Write(ctx, rec); err != nil {
			return fmt.Errorf("snapshot %s at t=%g: %w", st, t, err)
		}
		n.rec.IncSnapshot(st.String())
	}
	return nil
}

// Run records the initial state, then advances the simulation through every
// instant up to and including tEnd, taking snapshots as configured. Run may
// be called again with a later tEnd to continue.
func (n *Network) Run(ctx context.Context, tEnd float64) (Result, error) {
	if n.closed {
		return Result{}, errors.New("network closed")
	}
	start := time.Now()
	// Cancellation stops the kernel; records of completed instants are
	// still written.
	writeCtx := context.WithoutCancel(ctx)
	if n.snapSeq == 0 {
		if err := n.PrintState(writeCtx, 0); err != nil {
			return n.result(start), err
		}
		n.nextSnap = n.cfg.SnapshotEvery
	}
	n.logger.Info("run started", "end_time", tEnd, "sample_frequency", n.cfg.SampleFrequency)

	err := n.sim.RunUntil(ctx, tEnd, func(t float64) error {
		if err := n.quota.check(n.runID, t); err != nil {
			return err
		}
		// Snapshot once the instant is complete, never mid-instant.
		if n.sim.NextEventTime() == t || t < n.nextSnap {
			return nil
		}
		if n.cfg.SnapshotEvery > 0 {
			n.nextSnap = (math.Floor(t/n.cfg.SnapshotEvery) + 1) * n.cfg.SnapshotEvery
		}
		n.rec.SetLiveEvents(n.arena.Live())
		return n.PrintState(writeCtx, t)
	})

	res := n.result(start)
	n.rec.ObserveRunDuration(res.Duration)
	n.rec.SetLiveEvents(res.LiveEvents)
	if err != nil {
		n.logger.Error("run stopped", "time", res.EndTime, "error", err)
		return res, err
	}
	n.logger.Info("run finished",
		"time", res.EndTime,
		"steps", res.Steps,
		"snapshots", res.Snapshots,
		"control_runs", n.harness.ControlRuns(),
		"live_events", res.LiveEvents,
	)
	if res.LiveEvents != 0 {
		n.logger.Warn("events outstanding at end of run", "live_events", res.LiveEvents)
	}
	return res, nil
}

func (n *Network) result(start time.Time) Result {
	return Result{
		RunID:      n.runID,
		EndTime:    n.sim.Now(),
		Steps:      n.sim.Clock().Current(),
		Snapshots:  n.snapSeq,
		LiveEvents: n.arena.Live(),
		Duration:   time.Since(start),
	}
}

// Close releases commands still queued on the proxy and closes the sink.
// Safe to call twice.
func (n *Network) Close() error {
	if n.closed {
		return nil
	}
	n.closed = true
	n.proxy.ClearPendingEvents()
	if err := n.sink.Close(); err != nil {
		return fmt.Errorf("close snapshot sink: %w", err)
	}
	return nil
}
