package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit delivery.
type Metrics struct {
	EventsEmitted   prometheus.Counter
	EventsDropped   prometheus.Counter
	PersistFailures prometheus.Counter
	SampledOut      prometheus.Counter
	CircuitOpened   prometheus.Counter
}

// NewMetrics registers audit delivery metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "studioreg_audit_events_emitted_total",
			Help: "Total number of audit events accepted for delivery",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "studioreg_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the buffer was full",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "studioreg_audit_persist_failures_total",
			Help: "Total number of audit events the store failed to persist",
		}),
		SampledOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "studioreg_audit_events_sampled_out_total",
			Help: "Total number of operations audit events skipped by sampling",
		}),
		CircuitOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "studioreg_audit_sink_circuit_opened_total",
			Help: "Total number of times an external audit sink circuit opened",
		}),
	}
}
