package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus collectors.
type Metrics struct {
	Operations   *prometheus.CounterVec
	FactionCount prometheus.Gauge
	WorkflowOpen prometheus.Gauge
}

// New registers the collectors with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factiond_operations_total",
			Help: "Faction operations by action and outcome.",
		}, []string{"action", "outcome"}),
		FactionCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "factiond_factions",
			Help: "Number of active factions.",
		}),
		WorkflowOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "factiond_workflow_sessions_open",
			Help: "Open faction creation workflow sessions.",
		}),
	}
}

// Observe records one operation outcome.
func (m *Metrics) Observe(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Operations.WithLabelValues(action, outcome).Inc()
}
