// Package metrics defines the Prometheus collectors exported by feather.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is one set of collectors registered on a single registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ParseDuration    prometheus.Histogram
	ApplyDuration    prometheus.Histogram
	FilesIndexed     *prometheus.CounterVec
	GlobalSymbols    prometheus.Gauge
	NamedTypes       prometheus.Gauge
	Diagnostics      *prometheus.GaugeVec
	WatcherEvents    prometheus.Counter
	InvariantFailure prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ParseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "feather_parse_seconds",
			Help:    "Time spent parsing a GML source file.",
			Buckets: prometheus.DefBuckets,
		}),
		ApplyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "feather_apply_seconds",
			Help:    "Time spent extracting global declarations from one file.",
			Buckets: prometheus.DefBuckets,
		}),
		FilesIndexed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "feather_files_indexed_total",
			Help: "Files processed by the indexer, by outcome.",
		}, []string{"outcome"}),
		GlobalSymbols: f.NewGauge(prometheus.GaugeOpts{
			Name: "feather_global_symbols",
			Help: "Number of global symbols in the registry.",
		}),
		NamedTypes: f.NewGauge(prometheus.GaugeOpts{
			Name: "feather_named_types",
			Help: "Number of named types in the registry.",
		}),
		Diagnostics: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "feather_diagnostics",
			Help: "Current diagnostics, by severity.",
		}, []string{"severity"}),
		WatcherEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "feather_watcher_events_total",
			Help: "File system changes delivered by the watcher.",
		}),
		InvariantFailure: f.NewCounter(prometheus.CounterOpts{
			Name: "feather_invariant_failures_total",
			Help: "Files whose extraction stopped on an internal consistency failure.",
		}),
	}
}

// Outcomes of an indexed file.
const (
	OutcomeIndexed   = "indexed"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
	OutcomeRemoved   = "removed"
)

// ObserveParse records a parse duration in seconds.
func (m *Metrics) ObserveParse(seconds float64) {
	if m != nil {
		m.ParseDuration.Observe(seconds)
	}
}

// ObserveApply records an extraction duration in seconds.
func (m *Metrics) ObserveApply(seconds float64) {
	if m != nil {
		m.ApplyDuration.Observe(seconds)
	}
}

// FileDone counts one file with the given outcome.
func (m *Metrics) FileDone(outcome string) {
	if m != nil {
		m.FilesIndexed.WithLabelValues(outcome).Inc()
	}
}

// SetRegistrySize updates the symbol and type gauges.
func (m *Metrics) SetRegistrySize(symbols, types int) {
	if m != nil {
		m.GlobalSymbols.Set(float64(symbols))
		m.NamedTypes.Set(float64(types))
	}
}

// SetDiagnostics replaces the per-severity diagnostic gauges.
func (m *Metrics) SetDiagnostics(counts map[string]int) {
	if m == nil {
		return
	}
	m.Diagnostics.Reset()
	for sev, n := range counts {
		m.Diagnostics.WithLabelValues(sev).Set(float64(n))
	}
}

// WatcherEvent counts n delivered file changes.
func (m *Metrics) WatcherEvent(n int) {
	if m != nil {
		m.WatcherEvents.Add(float64(n))
	}
}

// Invariant counts one internal consistency failure.
func (m *Metrics) Invariant() {
	if m != nil {
		m.InvariantFailure.Inc()
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
