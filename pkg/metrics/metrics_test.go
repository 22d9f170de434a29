package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.GraphDevicesTotal == nil {
		t.Error("GraphDevicesTotal not initialized")
	}
	if r.ValidationsTotal == nil {
		t.Error("ValidationsTotal not initialized")
	}
	if r.AuditIssuesByKind == nil {
		t.Error("AuditIssuesByKind not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("POST", "/api/cables", "201", 10*time.Millisecond)
	r.RecordHTTPRequest("POST", "/api/cables", "201", 20*time.Millisecond)

	got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("POST", "/api/cables", "201"))
	if got != 2 {
		t.Errorf("Expected 2 requests recorded, got %f", got)
	}
}

func TestRecordValidation(t *testing.T) {
	r := NewRegistry()

	r.RecordValidation(true, false)
	r.RecordValidation(true, true)
	r.RecordValidation(false, false)
	r.RecordValidation(false, false)

	if got := counterValue(t, r.ValidationsTotal.WithLabelValues("valid")); got != 1 {
		t.Errorf("valid: expected 1, got %f", got)
	}
	if got := counterValue(t, r.ValidationsTotal.WithLabelValues("warning")); got != 1 {
		t.Errorf("warning: expected 1, got %f", got)
	}
	if got := counterValue(t, r.ValidationsTotal.WithLabelValues("invalid")); got != 2 {
		t.Errorf("invalid: expected 2, got %f", got)
	}
}

func TestRecordCycleCheck(t *testing.T) {
	r := NewRegistry()

	r.RecordCycleCheck(true)
	r.RecordCycleCheck(false)
	r.RecordCycleCheck(false)

	if got := counterValue(t, r.CycleChecksTotal.WithLabelValues("cycle")); got != 1 {
		t.Errorf("cycle: expected 1, got %f", got)
	}
	if got := counterValue(t, r.CycleChecksTotal.WithLabelValues("acyclic")); got != 2 {
		t.Errorf("acyclic: expected 2, got %f", got)
	}
}

func TestRecordAudit(t *testing.T) {
	r := NewRegistry()

	r.RecordAudit(map[string]int{"Info": 3, "Warning": 1})

	if got := counterValue(t, r.AuditRunsTotal); got != 1 {
		t.Errorf("runs: expected 1, got %f", got)
	}
	if got := gaugeValue(t, r.AuditIssuesByKind.WithLabelValues("Info")); got != 3 {
		t.Errorf("info issues: expected 3, got %f", got)
	}
	if got := gaugeValue(t, r.AuditIssuesByKind.WithLabelValues("Error")); got != 0 {
		t.Errorf("error issues: expected 0, got %f", got)
	}
}

func TestUpdateGraphSize(t *testing.T) {
	r := NewRegistry()

	r.UpdateGraphSize(4, 6, 20)

	if got := gaugeValue(t, r.GraphDevicesTotal); got != 4 {
		t.Errorf("devices: expected 4, got %f", got)
	}
	if got := gaugeValue(t, r.GraphCablesTotal); got != 6 {
		t.Errorf("cables: expected 6, got %f", got)
	}
	if got := gaugeValue(t, r.GraphPortsTotal); got != 20 {
		t.Errorf("ports: expected 20, got %f", got)
	}
}
