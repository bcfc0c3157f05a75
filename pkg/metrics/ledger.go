package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts ledger mutations by kind.
type LedgerMetrics struct {
	appended *prometheus.CounterVec
	payments prometheus.Counter
	removed  prometheus.Counter
}

// NewLedgerMetrics registers the ledger counters on reg. A nil registerer
// yields a no-op recorder.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	appended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kridi_entries_appended_total",
		Help: "Ledger entries recorded, by entry type.",
	}, []string{"type"})
	payments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kridi_payments_total",
		Help: "Payments marked against debt entries.",
	})
	removed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kridi_entries_deleted_total",
		Help: "Unpaid ledger entries deleted.",
	})
	reg.MustRegister(appended, payments, removed)
	return &LedgerMetrics{appended: appended, payments: payments, removed: removed}
}

func (m *LedgerMetrics) EntryAppended(entryType string) {
	if m == nil || m.appended == nil {
		return
	}
	m.appended.WithLabelValues(normalizeLabel(entryType)).Inc()
}

func (m *LedgerMetrics) PaymentMarked() {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.Inc()
}

func (m *LedgerMetrics) EntryDeleted() {
	if m == nil || m.removed == nil {
		return
	}
	m.removed.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
