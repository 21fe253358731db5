package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "pyramid"

var EngineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: metricsNamespace,
	Subsystem: "engine",
	Name:      "run_duration_seconds",
	Help:      "Duration of aggregation, ranking, transition and redistribution passes.",
	Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
}, []string{"engine", "outcome"})

var EngineRowsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "engine",
	Name:      "rows_written_total",
	Help:      "Rows written by engine passes, by table.",
}, []string{"engine", "table"})

var HierarchyOrphans = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: metricsNamespace,
	Subsystem: "hierarchy",
	Name:      "orphans",
	Help:      "Assignments detached from the pyramid at the last aggregation pass.",
}, []string{"season"})

var RoleMoves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "transition",
	Name:      "role_moves_total",
	Help:      "Role changes applied at season close.",
}, []string{"kind"})

var FraudAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "fraud",
	Name:      "alerts_total",
	Help:      "Fraud alerts raised by type.",
}, []string{"type"})

var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: metricsNamespace,
	Subsystem: "notify",
	Name:      "sent_total",
	Help:      "Role-change notifications by outcome.",
}, []string{"outcome"})

// ObserveEngineRun records one pass. Call it deferred with the start time and the returned error.
func ObserveEngineRun(engine string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	EngineRunDuration.WithLabelValues(engine, outcome).Observe(time.Since(started).Seconds())
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

var CircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: metricsNamespace,
	Subsystem: "dependency",
	Name:      "circuit_open",
	Help:      "1 while the circuit breaker of an outbound dependency rejects calls.",
}, []string{"dependency"})
