package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/studio-pulse/internal/observability/metrics"
)

func TestSetupMetricsExposesSchedulerMetrics(t *testing.T) {
	handler, reg := setupMetrics()
	if handler == nil || reg == nil {
		t.Fatalf("expected non-nil handler and registry")
	}

	m := metrics.NewSchedulerMetrics(reg)
	m.ObserveTask("rules")
	m.ObserveStatusChange("Busy")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{"studio_pulse_scheduler_tasks_total", "studio_pulse_scheduler_status_changes_total", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s to be exported", name)
		}
	}
}
