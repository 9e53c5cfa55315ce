// Package prometheus implements the engine, artifact and catalog metric
// interfaces on the shared registry.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/artifactguard/pkg/metrics"
	"github.com/marmos91/artifactguard/pkg/purge"
)

// PurgeMetrics implements purge.Metrics and monitor.Gauge.
type PurgeMetrics struct {
	triggers       *prometheus.CounterVec
	state          prometheus.Gauge
	evictions      *prometheus.CounterVec
	freeBytes      prometheus.Gauge
	runs           *prometheus.CounterVec
	unitsPurged    prometheus.Counter
	runDuration    prometheus.Histogram
	lastRunSeconds prometheus.Gauge
}

// NewPurgeMetrics returns nil when metrics are disabled. The result is
// typed as the interface so a disabled collector is a true nil.
func NewPurgeMetrics() purge.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return NewPurgeMetricsWith(metrics.GetRegistry())
}

// NewPurgeMetricsWith registers the collectors on reg.
func NewPurgeMetricsWith(reg prometheus.Registerer) *PurgeMetrics {
	f := promauto.With(reg)
	return &PurgeMetrics{
		triggers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_triggers_total",
			Help:      "Trigger calls by result (accepted wakes the worker, coalesced joins a pending run)",
		}, []string{"result"}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_state",
			Help:      "Engine state: 0 idle, 1 pending, 2 running",
		}),
		evictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_evictions_total",
			Help:      "Eviction attempts by status",
		}, []string{"status"}),
		freeBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "free_bytes",
			Help:      "Most recent free-space reading in bytes",
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_runs_total",
			Help:      "Completed purge runs by outcome",
		}, []string{"outcome"}),
		unitsPurged: f.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_units_purged_total",
			Help:      "Stages whose artifacts were purged",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_run_duration_seconds",
			Help:      "Wall time of purge runs",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}),
		lastRunSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "purge_last_run_timestamp_seconds",
			Help:      "Unix time the last purge run finished",
		}),
	}
}

func (m *PurgeMetrics) TriggerObserved(accepted bool) {
	if m == nil {
		return
	}
	result := "coalesced"
	if accepted {
		result = "accepted"
	}
	m.triggers.WithLabelValues(result).Inc()
}

func (m *PurgeMetrics) StateChanged(s purge.State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

func (m *PurgeMetrics) EvictionObserved(ok bool) {
	if m == nil {
		return
	}
	status := "failure"
	if ok {
		status = "success"
	}
	m.evictions.WithLabelValues(status).Inc()
}

func (m *PurgeMetrics) FreeSpaceObserved(bytes uint64) {
	if m == nil {
		return
	}
	m.freeBytes.Set(float64(bytes))
}

func (m *PurgeMetrics) RunCompleted(r purge.Report) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(r.Outcome()).Inc()
	m.unitsPurged.Add(float64(r.UnitsPurged))
	m.runDuration.Observe(r.Duration().Seconds())
	if !r.FinishedAt.IsZero() {
		m.lastRunSeconds.Set(float64(r.FinishedAt.Unix()))
	}
}

var _ purge.Metrics = (*PurgeMetrics)(nil)
