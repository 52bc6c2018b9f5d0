package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// OpsMetrics records counters for the reconciliation-sensitive operations.
type OpsMetrics struct {
	operations *prometheus.CounterVec
	rollbacks  *prometheus.CounterVec
	drift      *prometheus.CounterVec
}

// NewOpsMetrics registers the operation metrics on the provided registerer.
func NewOpsMetrics(reg prometheus.Registerer) *OpsMetrics {
	if reg == nil {
		return &OpsMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Order and payment operations that touched the customer ledger.",
	}, []string{"operation", "outcome"})
	rollbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_create_rollbacks_total",
		Help: "Order creations aborted after partial stock reservation.",
	}, []string{"reason"})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_drift_detected_total",
		Help: "Balance audits whose recomputed balance disagreed with the stored one.",
	}, []string{"source"})
	reg.MustRegister(operations, rollbacks, drift)
	return &OpsMetrics{
		operations: operations,
		rollbacks:  rollbacks,
		drift:      drift,
	}
}

// IncOperation counts one ledger-touching operation with its outcome.
func (m *OpsMetrics) IncOperation(operation, outcome string) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncRollback counts an aborted order create.
func (m *OpsMetrics) IncRollback(reason string) {
	if m == nil || m.rollbacks == nil {
		return
	}
	m.rollbacks.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDrift counts a detected ledger drift.
func (m *OpsMetrics) IncDrift(source string) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.WithLabelValues(normalizeLabel(source)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return strings.ReplaceAll(value, " ", "_")
}
