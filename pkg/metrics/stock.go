package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultApplied      = "applied"
	ResultInsufficient = "insufficient_stock"
	ResultError        = "error"
)

// StockMetrics records ledger mutations and the latest balance per group.
type StockMetrics struct {
	mutations *prometheus.CounterVec
	units     *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
	readRetry *prometheus.CounterVec
}

// NewStockMetrics registers the stock ledger metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_mutations_total",
		Help: "Stock ledger mutations by blood group, reason and result.",
	}, []string{"blood_group", "reason", "result"})
	units := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stock_units_available",
		Help: "Units available after the last applied mutation.",
	}, []string{"blood_group"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_mutation_duration_seconds",
		Help:    "Time spent holding a blood group lock, transaction included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"blood_group"})
	readRetry := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_read_retries_total",
		Help: "Retried stock reads after a persistence failure.",
	}, []string{"operation"})
	reg.MustRegister(mutations, units, duration, readRetry)
	return &StockMetrics{
		mutations: mutations,
		units:     units,
		duration:  duration,
		readRetry: readRetry,
	}
}

// ObserveMutation counts one mutation attempt.
func (m *StockMetrics) ObserveMutation(group, reason, result string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(group), normalizeLabel(reason), normalizeLabel(result)).Inc()
}

// SetUnits records the committed balance for group.
func (m *StockMetrics) SetUnits(group string, units int) {
	if m == nil || m.units == nil {
		return
	}
	m.units.WithLabelValues(normalizeLabel(group)).Set(float64(units))
}

// ObserveLockHeld records how long a group lock was held.
func (m *StockMetrics) ObserveLockHeld(group string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(group)).Observe(d.Seconds())
}

// IncReadRetry counts a retried read.
func (m *StockMetrics) IncReadRetry(operation string) {
	if m == nil || m.readRetry == nil {
		return
	}
	m.readRetry.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
