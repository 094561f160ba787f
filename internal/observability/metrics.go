package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	JobsStarted    prometheus.Counter
	JobsFinished   *prometheus.CounterVec
	JobDuration    prometheus.Histogram
	ArtifactCount  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live conversation sessions.",
		}),
		JobsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_jobs_started_total",
			Help:      "Generation jobs started.",
		}),
		JobsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_jobs_finished_total",
			Help:      "Terminal generation jobs by status and failure kind.",
		}, []string{"status", "reason"}),
		JobDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_job_duration_seconds",
			Help:      "Wall-clock duration of terminal generation jobs.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		}),
		ArtifactCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_artifacts_per_job",
			Help:      "Extracted artifacts per completed job.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

func (m *Metrics) ObserveJobFinished(status, reason string, d time.Duration) {
	m.JobsFinished.WithLabelValues(status, reason).Inc()
	m.JobDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
