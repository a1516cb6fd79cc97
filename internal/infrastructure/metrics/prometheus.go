package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements the core metrics port on a dedicated
// registry, so tests can create instances without collector name collisions.
type PrometheusMetrics struct {
	registry        *prometheus.Registry
	scansDispatched prometheus.Counter
	scansCompleted  prometheus.Counter
	scansFailed     prometheus.Counter
	sweeperRepairs  prometheus.Counter
	queueDepth      prometheus.Gauge
}

// NewPrometheusMetrics creates the engine's metric collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &PrometheusMetrics{
		registry: registry,
		scansDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "scan_engine_scans_dispatched_total",
			Help: "Queue entries created by dispatch cycles",
		}),
		scansCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "scan_engine_scans_completed_total",
			Help: "Scans that finished successfully",
		}),
		scansFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "scan_engine_scans_failed_total",
			Help: "Scans that ended in failure",
		}),
		sweeperRepairs: factory.NewCounter(prometheus.CounterOpts{
			Name: "scan_engine_sweeper_repairs_total",
			Help: "Stuck scans and orphaned queue entries repaired by the sweeper",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scan_engine_queue_depth",
			Help: "Pending queue entries observed at the last claim pass",
		}),
	}
}

// ScansDispatched counts queue entries created by a dispatch cycle
func (m *PrometheusMetrics) ScansDispatched(n int) {
	m.scansDispatched.Add(float64(n))
}

// ScanCompleted counts one successfully finished scan
func (m *PrometheusMetrics) ScanCompleted() {
	m.scansCompleted.Inc()
}

// ScanFailed counts one failed scan
func (m *PrometheusMetrics) ScanFailed() {
	m.scansFailed.Inc()
}

// SweeperRepairs counts items repaired by a sweeper pass
func (m *PrometheusMetrics) SweeperRepairs(n int) {
	m.sweeperRepairs.Add(float64(n))
}

// QueueDepth records the current number of pending queue entries
func (m *PrometheusMetrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// Handler exposes the registry for the /metrics endpoint
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
