package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/studio-pulse/internal/appointments"
	"github.com/wolfman30/studio-pulse/internal/automation"
	"github.com/wolfman30/studio-pulse/internal/dashboard"
	httpmiddleware "github.com/wolfman30/studio-pulse/internal/http/middleware"
	"github.com/wolfman30/studio-pulse/internal/observability/metrics"
	"github.com/wolfman30/studio-pulse/pkg/logging"
)

func newTestRouter(t *testing.T, checks map[string]ReadinessCheck) http.Handler {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	s := automation.NewScheduler(appointments.NewStaticSource(nil), logger).
		WithMetrics(metrics.NewSchedulerMetrics(reg))

	cfg := &Config{
		Logger:             logger,
		Dashboard:          dashboard.NewHandler(s, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"https://pulse.example"},
		Checks:             checks,
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
	if rr.Header().Get(httpmiddleware.RequestIDHeader) == "" {
		t.Errorf("expected request id header")
	}
}

func TestRouterReadiness(t *testing.T) {
	healthy := newTestRouter(t, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return nil },
	})
	rr := httptest.NewRecorder()
	healthy.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rr.Code)
	}

	failing := newTestRouter(t, map[string]ReadinessCheck{
		"database": func(context.Context) error { return errors.New("connection refused") },
	})
	rr = httptest.NewRecorder()
	failing.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var resp struct {
		Failed map[string]string `json:"failed"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Failed["database"] != "connection refused" {
		t.Errorf("expected database failure, got %v", resp.Failed)
	}
}

func TestRouterMountsDashboard(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard/snapshot", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var snap automation.Snapshot
	if err := json.NewDecoder(rr.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Status == "" {
		t.Errorf("expected a status in the snapshot")
	}
}

func TestRouterMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard/status", nil)
	req.Header.Set("Origin", "https://pulse.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://pulse.example" {
		t.Errorf("unexpected allow origin %q", got)
	}
}
