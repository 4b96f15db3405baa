package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/conductor-ai/conductor/internal/runtime"
)

// Metrics exposes the orchestrator's read-only counters as Prometheus
// gauges, grounded in the teacher's internal/observability.Metrics. This is
// ambient runtime observability, not the cost-tracking/rate-limiting
// spec.md excludes as a Non-goal.
type Metrics struct {
	workersSpawned prometheus.Gauge
	workersActive  prometheus.Gauge
	toolCallsTotal prometheus.Gauge
	compactionRuns prometheus.Gauge
}

// NewMetrics registers the runtime gauges against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		workersSpawned: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "conductor",
			Name:      "workers_spawned_total",
			Help:      "Total number of worker agents spawned since process start.",
		}),
		workersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "conductor",
			Name:      "workers_active",
			Help:      "Number of worker agents currently running.",
		}),
		toolCallsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "conductor",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls executed across all loops.",
		}),
		compactionRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "conductor",
			Name:      "compaction_runs_total",
			Help:      "Total number of times a conversation was compacted.",
		}),
	}
}

// Refresh pulls a fresh snapshot from the orchestrator into the gauges. A
// periodic caller (e.g. before every /metrics scrape) keeps them current.
func (m *Metrics) Refresh(o *runtime.Orchestrator) {
	snap := o.Metrics()
	m.workersSpawned.Set(float64(snap.WorkersSpawned))
	m.workersActive.Set(float64(snap.WorkersActive))
	m.toolCallsTotal.Set(float64(snap.ToolCallsTotal))
	m.compactionRuns.Set(float64(snap.CompactionRuns))
}
