package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/artifactguard/pkg/artifacts"
	"github.com/marmos91/artifactguard/pkg/metrics"
)

// ArtifactMetrics implements artifacts.Metrics.
type ArtifactMetrics struct {
	deletes    *prometheus.CounterVec
	bytesFreed *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewArtifactMetrics returns nil when metrics are disabled.
func NewArtifactMetrics() artifacts.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return NewArtifactMetricsWith(metrics.GetRegistry())
}

// NewArtifactMetricsWith registers the collectors on reg.
func NewArtifactMetricsWith(reg prometheus.Registerer) *ArtifactMetrics {
	f := promauto.With(reg)
	return &ArtifactMetrics{
		deletes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "artifact_deletes_total",
			Help:      "Stage artifact deletions by backend and status",
		}, []string{"backend", "status"}),
		bytesFreed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "artifact_bytes_freed_total",
			Help:      "Bytes removed from the artifact store",
		}, []string{"backend"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "artifact_delete_duration_milliseconds",
			Help:      "Duration of stage artifact deletions in milliseconds",
			Buckets: []float64{
				1,     // local small stage
				10,    // local
				100,   // large local tree, small bucket prefix
				1000,  // 1s
				5000,  // many DeleteObjects batches
				30000, // 30s
			},
		}, []string{"backend"}),
	}
}

func (m *ArtifactMetrics) ObserveDelete(backend string, freed int64, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.deletes.WithLabelValues(backend, status).Inc()
	if freed > 0 {
		m.bytesFreed.WithLabelValues(backend).Add(float64(freed))
	}
	m.duration.WithLabelValues(backend).Observe(float64(d.Milliseconds()))
}

var _ artifacts.Metrics = (*ArtifactMetrics)(nil)
