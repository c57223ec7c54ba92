package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/iap/internal/health"
	"github.com/vladislavdragonenkov/iap/internal/version"
)

func TestStartMetricsServer_Endpoints(t *testing.T) {
	logger := log.WithField("test", "http")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	srv := startMetricsServer(ctx, addr, logger, healthHandler, nil)
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}

	// Даём время на запуск
	time.Sleep(100 * time.Millisecond)

	endpoints := map[string]string{
		"/metrics": "",
		"/healthz": "",
		"/readyz":  "ready",
		"/livez":   "ok",
	}

	for path, wantBody := range endpoints {
		url := fmt.Sprintf("http://localhost:%d%s", port, path)
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("failed to get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s returned status %d, expected 200", path, resp.StatusCode)
		}
		if len(body) == 0 {
			t.Errorf("%s returned empty body", path)
		}
		if wantBody != "" && string(body) != wantBody {
			t.Errorf("%s returned %q, expected %q", path, string(body), wantBody)
		}
	}

	// Метрики покупок экспортируются.
	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/metrics", port))
	if err != nil {
		t.Fatalf("failed to get /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("/metrics should expose default collectors")
	}
}

func TestStartMetricsServer_PurchaseEndpointDisabled(t *testing.T) {
	logger := log.WithField("test", "http")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	startMetricsServer(ctx, addr, logger, healthHandler, nil)

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Post(fmt.Sprintf("http://localhost:%d/purchase", port), "application/json", nil)
	if err != nil {
		t.Fatalf("failed to post /purchase: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without submitter, got %d", resp.StatusCode)
	}
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	logger := log.WithField("test", "http-shutdown")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	ctx, cancel := context.WithCancel(context.Background())

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	srv := startMetricsServer(ctx, addr, logger, healthHandler, nil)
	if srv == nil {
		t.Fatal("startMetricsServer should not return nil")
	}

	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://localhost:%d/livez", port)
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("server should be running: %v", err)
	}
	resp.Body.Close()

	cancel()
	time.Sleep(200 * time.Millisecond)

	if _, err := http.Get(url); err == nil {
		t.Error("server should be stopped after context cancellation")
	}
}

func TestShutdownHTTP_NilServer(_ *testing.T) {
	logger := log.WithField("test", "http-nil")

	// Не должно паниковать.
	shutdownHTTP(nil, logger)
}

func TestHealthzReportsStorageCheck(t *testing.T) {
	logger := log.WithField("test", "http-healthz")

	port := findFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
		return nil
	}))
	startMetricsServer(ctx, addr, logger, healthHandler, nil)

	time.Sleep(100 * time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/healthz", port))
	if err != nil {
		t.Fatalf("failed to get /healthz: %v", err)
	}
	defer resp.Body.Close()

	var report healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode healthz response: %v", err)
	}
	if report.Status != healthcheck.StatusHealthy {
		t.Errorf("expected healthy status, got %s", report.Status)
	}
	if _, ok := report.Checks["storage"]; !ok {
		t.Error("expected storage check in healthz report")
	}
}

// findFreePort находит свободный порт для тестов
func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}
