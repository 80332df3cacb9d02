// Package metrics records run and step counters in a Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fjglira/bugzero/internal/domain"
)

const namespace = "bugzero"

// Recorder holds the bugzero collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	runs     prometheus.Counter
	steps    *prometheus.CounterVec
	skipped  prometheus.Counter
	duration prometheus.Histogram
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		runs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of test case runs completed.",
		}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Number of compiled actions executed, by status.",
		}, []string{"status"}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_skipped_total",
			Help:      "Number of steps dropped because their command had no translation.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent executing a single compiled action.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

// ObserveStep records one action outcome.
func (r *Recorder) ObserveStep(res domain.ExecutionResult) {
	if r == nil {
		return
	}
	r.steps.WithLabelValues(string(res.Status)).Inc()
	r.duration.Observe(res.Duration.Seconds())
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(rep *domain.Report) {
	if r == nil || rep == nil {
		return
	}
	r.runs.Inc()
	if n := len(rep.Skipped); n > 0 {
		r.skipped.Add(float64(n))
	}
}

// Seed adds the run and step counts of past runs, so that a process which
// executes nothing itself still reports the recorded totals.
func (r *Recorder) Seed(summaries []domain.Summary) {
	if r == nil {
		return
	}
	pass := r.steps.WithLabelValues(string(domain.StatusPass))
	fail := r.steps.WithLabelValues(string(domain.StatusFail))
	for _, sum := range summaries {
		r.runs.Inc()
		pass.Add(float64(sum.Passed))
		fail.Add(float64(sum.Failed))
	}
}

// RegisterRuntime adds the Go runtime and process collectors. Only long
// running processes call it; textfiles stay limited to bugzero series.
func (r *Recorder) RegisterRuntime() {
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return domain.NewError("metrics", path, 0, "failed to write metrics textfile", err)
	}
	return nil
}
