package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/boxkit/internal/catalog"
	"github.com/eugenenazirov/boxkit/internal/optimizer"
	"github.com/eugenenazirov/boxkit/internal/pricing"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	Supplier             string
	CatalogFile          string
	Padding              float64
	ReferenceQuantity    int
	ShippingRatePerKg    float64
	DimensionalFactor    float64
	MaxBoxes             int
	SearchBudget         time.Duration
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	// TrustedProxies lists the addresses or CIDR ranges whose X-Forwarded-For
	// header is believed when keying the rate limiter.
	TrustedProxies []string
}

// TrustedProxyPrefixes returns TrustedProxies as prefixes. Entries that do not
// parse are skipped; Load rejects them.
func (c Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		if p, err := parseProxy(raw); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// parseProxy accepts a CIDR range or a bare address.
func parseProxy(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// OptimizerOptions returns the optimization defaults requests start from.
func (c Config) OptimizerOptions() optimizer.Options {
	return optimizer.Options{
		Padding:           c.Padding,
		ReferenceQuantity: c.ReferenceQuantity,
		ShippingRatePerKg: c.ShippingRatePerKg,
		DimensionalFactor: c.DimensionalFactor,
		MaxBoxes:          c.MaxBoxes,
		SearchBudget:      c.SearchBudget,
	}
}

// yamlConfig represents the YAML configuration file structure. Pointers tell
// an absent key from an explicit zero.
type yamlConfig struct {
	Port                  string        `yaml:"port"`
	Supplier              string        `yaml:"supplier"`
	CatalogFile           string        `yaml:"catalog_file"`
	Padding               *float64      `yaml:"padding"`
	ReferenceQuantityTier *int          `yaml:"reference_quantity_tier"`
	ShippingRatePerKg     *float64      `yaml:"shipping_rate_per_kg"`
	DimensionalFactor     *float64      `yaml:"dimensional_factor"`
	MaxBoxes              *int          `yaml:"max_boxes"`
	SearchBudget          string        `yaml:"search_budget"`
	ShutdownGracePeriod   string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout     string        `yaml:"read_header_timeout"`
	WriteTimeout          string        `yaml:"write_timeout"`
	IdleTimeout           string        `yaml:"idle_timeout"`
	EnableRequestLogging  *bool         `yaml:"enable_request_logging"`
	RateLimit             yamlRateLimit `yaml:"rate_limit"`
	TrustedProxies        []string      `yaml:"trusted_proxies"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides. Nil fields are unset.
type CLIOverrides struct {
	ConfigFile        string
	Port              *string
	Supplier          *string
	CatalogFile       *string
	Padding           *float64
	ReferenceQuantity *int
	ShippingRatePerKg *float64
	MaxBoxes          *int
	SearchBudget      *time.Duration
	RateLimitRPS      *float64
	RateLimitBurst    *int
	TrustedProxies    []string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment first so the YAML file can override it.
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Supplier:             catalog.DefaultSupplier,
		Padding:              0,
		ReferenceQuantity:    pricing.DefaultReferenceQuantity,
		ShippingRatePerKg:    0,
		DimensionalFactor:    pricing.DefaultDimensionalFactor,
		MaxBoxes:             optimizer.DefaultMaxBoxes,
		SearchBudget:         optimizer.DefaultSearchBudget,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.Supplier != "" {
		cfg.Supplier = yamlCfg.Supplier
	}
	if yamlCfg.CatalogFile != "" {
		cfg.CatalogFile = yamlCfg.CatalogFile
	}
	if yamlCfg.Padding != nil {
		cfg.Padding = *yamlCfg.Padding
	}
	if yamlCfg.ReferenceQuantityTier != nil {
		cfg.ReferenceQuantity = *yamlCfg.ReferenceQuantityTier
	}
	if yamlCfg.ShippingRatePerKg != nil {
		cfg.ShippingRatePerKg = *yamlCfg.ShippingRatePerKg
	}
	if yamlCfg.DimensionalFactor != nil {
		cfg.DimensionalFactor = *yamlCfg.DimensionalFactor
	}
	if yamlCfg.MaxBoxes != nil {
		cfg.MaxBoxes = *yamlCfg.MaxBoxes
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.TrustedProxies != nil {
		cfg.TrustedProxies = yamlCfg.TrustedProxies
	}

	var errs error
	durations := []struct {
		key   string
		raw   string
		field *time.Duration
	}{
		{"search_budget", yamlCfg.SearchBudget, &cfg.SearchBudget},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.key, err))
			continue
		}
		*d.field = parsed
	}
	return errs
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}
	if supplier := env("SUPPLIER"); supplier != "" {
		cfg.Supplier = supplier
	}
	if file := env("CATALOG_FILE"); file != "" {
		cfg.CatalogFile = file
	}
	if proxies := env("TRUSTED_PROXIES"); proxies != "" {
		cfg.TrustedProxies = nil
		for _, p := range strings.Split(proxies, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	var errs error
	errs = multierr.Append(errs, envFloat("PADDING", &cfg.Padding))
	errs = multierr.Append(errs, envInt("REFERENCE_QUANTITY_TIER", &cfg.ReferenceQuantity))
	errs = multierr.Append(errs, envFloat("SHIPPING_RATE_PER_KG", &cfg.ShippingRatePerKg))
	errs = multierr.Append(errs, envFloat("DIMENSIONAL_FACTOR", &cfg.DimensionalFactor))
	errs = multierr.Append(errs, envInt("MAX_BOXES", &cfg.MaxBoxes))
	errs = multierr.Append(errs, envFloat("RATE_LIMIT_RPS", &cfg.RateLimitRPS))
	errs = multierr.Append(errs, envInt("RATE_LIMIT_BURST", &cfg.RateLimitBurst))

	if raw := env("SEARCH_BUDGET"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("SEARCH_BUDGET: %w", err))
		} else {
			cfg.SearchBudget = d
		}
	}
	if raw := env("ENABLE_REQUEST_LOGGING"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ENABLE_REQUEST_LOGGING: %w", err))
		} else {
			cfg.EnableRequestLogging = enabled
		}
	}
	return errs
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envFloat(key string, dst *float64) error {
	raw := env(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, raw)
	}
	*dst = value
	return nil
}

func envInt(key string, dst *int) error {
	raw := env(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	*dst = value
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.Supplier != nil && *overrides.Supplier != "" {
		cfg.Supplier = *overrides.Supplier
	}
	if overrides.CatalogFile != nil && *overrides.CatalogFile != "" {
		cfg.CatalogFile = *overrides.CatalogFile
	}
	if overrides.Padding != nil {
		cfg.Padding = *overrides.Padding
	}
	if overrides.ReferenceQuantity != nil {
		cfg.ReferenceQuantity = *overrides.ReferenceQuantity
	}
	if overrides.ShippingRatePerKg != nil {
		cfg.ShippingRatePerKg = *overrides.ShippingRatePerKg
	}
	if overrides.MaxBoxes != nil {
		cfg.MaxBoxes = *overrides.MaxBoxes
	}
	if overrides.SearchBudget != nil {
		cfg.SearchBudget = *overrides.SearchBudget
	}
	if overrides.RateLimitRPS != nil {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
	if overrides.TrustedProxies != nil {
		cfg.TrustedProxies = overrides.TrustedProxies
	}
}

// validateConfig reports every invalid setting at once.
func validateConfig(cfg Config) error {
	var errs error
	check := func(ok bool, msg string) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, msg))
		}
	}

	check(cfg.Port != "", "port cannot be empty")
	check(cfg.Supplier != "", "supplier cannot be empty")
	check(cfg.Padding >= 0, "padding must be >= 0")
	check(cfg.ReferenceQuantity > 0, "reference_quantity_tier must be > 0")
	check(cfg.ShippingRatePerKg >= 0, "shipping_rate_per_kg must be >= 0")
	check(cfg.DimensionalFactor > 0, "dimensional_factor must be > 0")
	check(cfg.MaxBoxes > 0, "max_boxes must be > 0")
	check(cfg.SearchBudget > 0, "search_budget must be > 0")
	check(cfg.RateLimitRPS >= 0, "RATE_LIMIT_RPS must be >= 0")
	check(cfg.RateLimitBurst >= 0, "RATE_LIMIT_BURST must be >= 0")
	check(cfg.ShutdownGracePeriod > 0, "shutdown_grace_period must be > 0")
	check(cfg.ReadHeaderTimeout > 0, "read_header_timeout must be > 0")
	check(cfg.WriteTimeout > 0, "write_timeout must be > 0")
	check(cfg.IdleTimeout > 0, "idle_timeout must be > 0")
	for _, raw := range cfg.TrustedProxies {
		_, err := parseProxy(raw)
		check(err == nil, fmt.Sprintf("trusted_proxies entry %q is not an address or CIDR range", raw))
	}
	return errs
}
