package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "simtest"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg         *prom.Registry
	steps       prom.Counter
	transitions *prom.CounterVec
	outputs     *prom.CounterVec
	snapshots   *prom.CounterVec
	simTime     prom.Gauge
	liveEvents  prom.Gauge
	runDuration prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		steps: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "kernel_steps_total",
			Help:      "Kernel steps executed",
		}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Component transitions by kind",
		}, []string{"component", "kind"}),
		outputs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "output_events_total",
			Help:      "Events emitted by component and channel",
		}, []string{"component", "channel"}),
		snapshots: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_records_total",
			Help:      "Snapshot records written by stream",
		}, []string{"stream"}),
		simTime: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_time",
			Help:      "Simulation time of the last kernel step",
		}),
		liveEvents: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "live_events",
			Help:      "Events allocated but not yet released",
		}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of simulation runs",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.steps, pr.transitions, pr.outputs, pr.snapshots, pr.simTime, pr.liveEvents, pr.runDuration)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) IncStep() {
	if p == nil {
		return
	}
	p.steps.Inc()
}

func (p *PrometheusRecorder) IncTransition(component, kind string) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(component, kind).Inc()
}

func (p *PrometheusRecorder) IncOutput(component, channel string) {
	if p == nil {
		return
	}
	p.outputs.WithLabelValues(component, channel).Inc()
}

func (p *PrometheusRecorder) IncSnapshot(stream string) {
	if p == nil {
		return
	}
	p.snapshots.WithLabelValues(stream).Inc()
}

func (p *PrometheusRecorder) SetSimTime(t float64) {
	if p == nil {
		return
	}
	p.simTime.Set(t)
}

func (p *PrometheusRecorder) SetLiveEvents(n int) {
	if p == nil {
		return
	}
	p.liveEvents.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

// WriteTextfile writes the current metrics in the text exposition format,
// for collection by a node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
