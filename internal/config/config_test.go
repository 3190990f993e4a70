package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"
)

var envKeys = []string{
	"PORT", "SUPPLIER", "CATALOG_FILE", "PADDING", "REFERENCE_QUANTITY_TIER",
	"SHIPPING_RATE_PER_KG", "DIMENSIONAL_FACTOR", "MAX_BOXES", "SEARCH_BUDGET",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "ENABLE_REQUEST_LOGGING", "TRUSTED_PROXIES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.Supplier != "satar" {
		t.Fatalf("expected default supplier satar, got %s", cfg.Supplier)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}

	opts := cfg.OptimizerOptions()
	if opts.ReferenceQuantity != 25 || opts.MaxBoxes != 5 || opts.SearchBudget != 500*time.Millisecond {
		t.Fatalf("unexpected optimizer defaults: %+v", opts)
	}
	if opts.DimensionalFactor != 5000 || opts.Padding != 0 || opts.ShippingRatePerKg != 0 {
		t.Fatalf("unexpected cost defaults: %+v", opts)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected request logging enabled by default")
	}
}

func TestLoadEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("SUPPLIER", "hdrm")
	t.Setenv("PADDING", "0.5")
	t.Setenv("MAX_BOXES", "3")
	t.Setenv("SEARCH_BUDGET", "250ms")
	t.Setenv("ENABLE_REQUEST_LOGGING", "false")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" || cfg.Supplier != "hdrm" {
		t.Fatalf("expected environment overrides, got %+v", cfg)
	}
	if cfg.Padding != 0.5 || cfg.MaxBoxes != 3 || cfg.SearchBudget != 250*time.Millisecond {
		t.Fatalf("unexpected optimizer settings: %+v", cfg)
	}
	if cfg.EnableRequestLogging {
		t.Fatalf("expected request logging disabled")
	}
}

func TestLoadRejectsMalformedEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PADDING", "wide")
	t.Setenv("MAX_BOXES", "many")

	_, err := Load(nil)
	if err == nil {
		t.Fatalf("expected error for malformed environment")
	}
	if got := len(multierr.Errors(errors.Unwrap(err))); got != 2 {
		t.Fatalf("expected both variables reported, got %d: %v", got, err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_BOXES", "2")
	t.Setenv("REFERENCE_QUANTITY_TIER", "50")

	path := writeConfig(t, `
port: "7000"
max_boxes: 4
search_budget: 1s
rate_limit:
  rps: 0
`)
	port := "6000"
	overrides := &CLIOverrides{ConfigFile: path, Port: &port}

	cfg, err := Load(overrides)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "6000" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.MaxBoxes != 4 {
		t.Fatalf("expected YAML max_boxes to beat env, got %d", cfg.MaxBoxes)
	}
	if cfg.ReferenceQuantity != 50 {
		t.Fatalf("expected env reference quantity, got %d", cfg.ReferenceQuantity)
	}
	if cfg.SearchBudget != time.Second {
		t.Fatalf("expected YAML search budget, got %s", cfg.SearchBudget)
	}
	if cfg.RateLimitRPS != 0 || cfg.RateLimitBurst != defaultRateLimitBurst {
		t.Fatalf("expected explicit zero rps and default burst, got %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.EnableRequestLogging {
		t.Fatalf("expected absent YAML key to keep request logging enabled")
	}
}

func TestLoadReportsAllInvalidSettings(t *testing.T) {
	clearEnv(t)

	padding := -1.0
	maxBoxes := 0
	rps := -5.0
	_, err := Load(&CLIOverrides{Padding: &padding, MaxBoxes: &maxBoxes, RateLimitRPS: &rps})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", got, err)
	}
}

func TestLoadYAMLErrors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(&CLIOverrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := writeConfig(t, "search_budget: soon\nidle_timeout: later\n")
	_, err := Load(&CLIOverrides{ConfigFile: path})
	if err == nil {
		t.Fatalf("expected error for invalid durations")
	}
	if got := len(multierr.Errors(errors.Unwrap(err))); got != 2 {
		t.Fatalf("expected both durations reported, got %d: %v", got, err)
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	prefixes := cfg.TrustedProxyPrefixes()
	if len(prefixes) != 2 {
		t.Fatalf("expected 2 trusted proxies, got %v", prefixes)
	}
	if prefixes[0].String() != "10.0.0.0/8" || prefixes[1].String() != "192.0.2.10/32" {
		t.Fatalf("unexpected prefixes %v", prefixes)
	}

	path := writeConfig(t, "trusted_proxies: [\"172.16.0.0/12\"]\n")
	cfg, err = Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "172.16.0.0/12" {
		t.Fatalf("expected YAML proxies to beat env, got %v", cfg.TrustedProxies)
	}

	cfg, err = Load(&CLIOverrides{ConfigFile: path, TrustedProxies: []string{"::1"}})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.TrustedProxyPrefixes(); len(got) != 1 || got[0].String() != "::1/128" {
		t.Fatalf("expected CLI proxies to win, got %v", got)
	}
}

func TestLoadDefaultsTrustNoProxy(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.TrustedProxyPrefixes()) != 0 {
		t.Fatalf("expected no trusted proxies by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadRejectsMalformedTrustedProxy(t *testing.T) {
	clearEnv(t)

	_, err := Load(&CLIOverrides{TrustedProxies: []string{"10.0.0.0/8", "gateway"}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if got := len(multierr.Errors(err)); got != 1 {
		t.Fatalf("expected only the malformed entry reported, got %d: %v", got, err)
	}
}
