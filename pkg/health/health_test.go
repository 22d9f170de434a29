package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerAggregation(t *testing.T) {
	c := NewChecker()
	c.RegisterReadiness("a", func() Check {
		return Check{Name: "a", Status: StatusHealthy}
	})
	c.RegisterReadiness("b", func() Check {
		return Check{Name: "b", Status: StatusDegraded}
	})

	resp := c.Readiness()
	if resp.Status != StatusDegraded {
		t.Errorf("Expected degraded overall status, got %s", resp.Status)
	}
	if len(resp.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(resp.Checks))
	}

	c.RegisterReadiness("c", func() Check {
		return Check{Name: "c", Status: StatusUnhealthy}
	})
	if resp := c.Readiness(); resp.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy overall status, got %s", resp.Status)
	}
}

func TestEmptyCheckerIsHealthy(t *testing.T) {
	c := NewChecker()
	if resp := c.Liveness(); resp.Status != StatusHealthy {
		t.Errorf("Expected healthy with no checks, got %s", resp.Status)
	}
}

func TestProjectStoreCheck(t *testing.T) {
	ok := ProjectStoreCheck(func(ctx context.Context) error { return nil })()
	if ok.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", ok.Status)
	}

	bad := ProjectStoreCheck(func(ctx context.Context) error {
		return errors.New("connection refused")
	})()
	if bad.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy, got %s", bad.Status)
	}
	if bad.Message != "connection refused" {
		t.Errorf("Expected error message, got %q", bad.Message)
	}
}

func TestGraphCheck(t *testing.T) {
	clean := GraphCheck(func() (int, int) { return 0, 3 })()
	if clean.Status != StatusHealthy {
		t.Errorf("Expected healthy with warnings only, got %s", clean.Status)
	}

	dirty := GraphCheck(func() (int, int) { return 2, 0 })()
	if dirty.Status != StatusDegraded {
		t.Errorf("Expected degraded with errors, got %s", dirty.Status)
	}
	if dirty.Details["error_issues"] != 2 {
		t.Errorf("Expected 2 error issues in details, got %v", dirty.Details["error_issues"])
	}
}

func TestHandlers(t *testing.T) {
	c := NewChecker()
	c.RegisterLiveness("self", func() Check {
		return Check{Name: "self", Status: StatusDegraded}
	})
	c.RegisterReadiness("store", func() Check {
		return Check{Name: "store", Status: StatusDegraded}
	})

	// Degraded is still alive
	rec := httptest.NewRecorder()
	c.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Liveness: expected 200 for degraded, got %d", rec.Code)
	}

	// Degraded is not ready
	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Readiness: expected 503 for degraded, got %d", rec.Code)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("Expected degraded in body, got %s", resp.Status)
	}
}
