package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes used as the "outcome" label.
const (
	OutcomeSuccess         = "success"
	OutcomeNotAuthorized   = "not_authorized"
	OutcomeAlreadyVerified = "already_verified"
	OutcomeNotVerified     = "not_verified"
	OutcomeInvalid         = "invalid"
	OutcomeError           = "error"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	VerifiedStudios   prometheus.Gauge
	AdminTransfers    prometheus.Counter
}

// New creates the registry metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studioreg_registry_operations_total",
			Help: "Registry operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studioreg_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including lock wait",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"operation"}),
		VerifiedStudios: factory.NewGauge(prometheus.GaugeOpts{
			Name: "studioreg_verified_studios",
			Help: "Current number of verified studios",
		}),
		AdminTransfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "studioreg_admin_transfers_total",
			Help: "Total number of successful admin transfers",
		}),
	}
}

// ObserveOperation records the outcome and duration of one operation.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetVerifiedStudios records the size of the verified set.
func (m *Metrics) SetVerifiedStudios(n int) {
	m.VerifiedStudios.Set(float64(n))
}

// IncrementAdminTransfers records a successful admin transfer.
func (m *Metrics) IncrementAdminTransfers() {
	m.AdminTransfers.Inc()
}
