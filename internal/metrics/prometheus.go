// Package metrics instruments engine runs and sweeps with Prometheus metrics.
//
// There is no HTTP endpoint: a batch CLI dumps the registry in the text
// exposition format with [Manager.WriteTextfile], e.g. for the node exporter's
// textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the status label.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var defaultDurationBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900}

type Manager struct {
	namespace       string
	subsystem       string
	durationBuckets []float64
	registry        *prometheus.Registry

	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	bestRMS     *prometheus.GaugeVec
	candidates  prometheus.Gauge
	stars       prometheus.Gauge
}

// NewManager creates a manager on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "rprocfit",
		durationBuckets: defaultDurationBuckets,
		registry:        prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Engine runs by scenario and outcome",
	}, []string{"scenario", "status"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of one engine run including scoring",
		Buckets:   m.durationBuckets,
	}, []string{"scenario"})

	m.bestRMS = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "best_rms",
		Help:      "Lowest RMS residual found by the last sweep, by target ratio",
	}, []string{"target"})

	m.candidates = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sweep_candidates",
		Help:      "Parameter combinations in the last sweep",
	})

	m.stars = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_stars",
		Help:      "Stars loaded from the observational catalog",
	})
}

// ObserveRun records one finished run.
func (m *Manager) ObserveRun(scenario, status string, elapsed time.Duration) {
	m.runs.WithLabelValues(scenario, status).Inc()
	m.runDuration.WithLabelValues(scenario).Observe(elapsed.Seconds())
}

func (m *Manager) SetBestRMS(target string, rms float64) {
	m.bestRMS.WithLabelValues(target).Set(rms)
}

func (m *Manager) SetCandidates(n int) { m.candidates.Set(float64(n)) }

func (m *Manager) SetCatalogStars(n int) { m.stars.Set(float64(n)) }

func (m *Manager) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Manager) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
