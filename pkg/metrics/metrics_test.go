package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLedgerMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)
	m.EntryAppended("debt")
	m.EntryAppended("debt")
	m.EntryAppended("payment")
	m.PaymentMarked()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "kridi_entries_appended_total", "type", "debt"); err != nil || got != 2 {
		t.Fatalf("expected debt=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "kridi_entries_appended_total", "type", "payment"); err != nil || got != 1 {
		t.Fatalf("expected payment=1, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "kridi_payments_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one payment marked")
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewLedgerMetrics(nil)
	m.EntryAppended("debt")
	m.PaymentMarked()
	m.EntryDeleted()

	var nilMetrics *LedgerMetrics
	nilMetrics.PaymentMarked()

	NewHTTPMetrics(nil).Observe("GET", "/x", 200, 0)
}

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/clients/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", Handler(reg))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/clients/123", nil))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/clients/{id}"); err != nil || got != 1 {
		t.Fatalf("expected one request on pattern, got %f (%v)", got, err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_request_duration_seconds") {
		t.Fatalf("metrics endpoint missing histogram")
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
