package application

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/boxkit/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := len(app.catalog.Suppliers()); got != 2 {
		t.Fatalf("expected embedded catalog with 2 suppliers, got %d", got)
	}
	if app.server == nil || app.router == nil || app.handler == nil || app.metrics == nil {
		t.Fatalf("expected server, router, handler and metrics to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.Server().Handler != app.Handler() {
		t.Fatalf("expected server to serve the wired router")
	}
}

func TestNewServesAPIAndMetrics(t *testing.T) {
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	for _, path := range []string{"/api/health", "/api/suppliers", "/metrics"} {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rec.Code)
		}
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewLoadsCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "suppliers:\n  - id: local\n    name: Local\n    boxes:\n      - {id: cube, w: 10, h: 10, d: 10, prices: {25: 5}}\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	cfg := baseTestConfig(":0")
	cfg.CatalogFile = path
	cfg.Supplier = "local"

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	boxes, err := app.catalog.Boxes("local")
	if err != nil || len(boxes) != 1 {
		t.Fatalf("expected the file catalog, got %v (%v)", boxes, err)
	}
}

func TestNewRejectsUnknownDefaultSupplier(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.Supplier = "nobody"

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for unknown default supplier")
	}
}

func TestNewRejectsMissingCatalogFile(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.CatalogFile = "definitely-not-a-real-catalog.yaml"

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for missing catalog file")
	}
}

func TestResolveProjectPathFindsGoMod(t *testing.T) {
	path, err := resolveProjectPath("go.mod")
	if err != nil {
		t.Fatalf("resolveProjectPath returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected go.mod to exist at %s: %v", path, err)
	}

	again, err := resolveProjectPath(path)
	if err != nil || again != path {
		t.Fatalf("expected absolute path to resolve to itself, got %s (%v)", again, err)
	}
}

func TestResolveProjectPathUnknownTarget(t *testing.T) {
	if _, err := resolveProjectPath("definitely-not-a-real-file"); err == nil {
		t.Fatalf("expected error for missing resource")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		Supplier:             "satar",
		ReferenceQuantity:    25,
		DimensionalFactor:    5000,
		MaxBoxes:             5,
		SearchBudget:         500 * time.Millisecond,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
