package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/boxkit/internal/api"
	"github.com/eugenenazirov/boxkit/internal/catalog"
	"github.com/eugenenazirov/boxkit/internal/config"
	"github.com/eugenenazirov/boxkit/internal/metrics"
	"github.com/eugenenazirov/boxkit/internal/optimizer"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	catalog   catalog.Store
	optimizer optimizer.Optimizer
	metrics   *metrics.Metrics
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	suppliers, source, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load box catalog: %w", err)
	}

	store := catalog.NewMemoryStore(suppliers)
	if _, err := store.Boxes(cfg.Supplier); err != nil {
		return nil, fmt.Errorf("default supplier %q: %w", cfg.Supplier, err)
	}
	logger.Info("box catalog loaded",
		zap.String("source", source),
		zap.Int("suppliers", len(suppliers)),
		zap.String("default_supplier", cfg.Supplier),
	)

	m := metrics.New()
	opt := optimizer.New()
	handler := api.NewHandler(opt, store,
		api.WithDefaults(cfg.OptimizerOptions()),
		api.WithDefaultSupplier(cfg.Supplier),
		api.WithHandlerMetrics(m),
		api.WithHandlerLogger(logger),
	)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithTrustedProxies(cfg.TrustedProxyPrefixes()...),
		api.WithMetrics(m),
	)

	return &App{
		catalog:   store,
		optimizer: opt,
		metrics:   m,
		handler:   handler,
		router:    router,
		logger:    logger,
		server:    NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// loadCatalog reads the catalog file when one is configured and falls back
// to the embedded catalog otherwise. It also reports where the catalog came from.
func loadCatalog(path string) ([]catalog.Supplier, string, error) {
	if path == "" {
		suppliers, err := catalog.Default()
		return suppliers, "embedded", err
	}

	resolved, err := resolveProjectPath(path)
	if err != nil {
		return nil, "", err
	}
	suppliers, err := catalog.LoadFile(resolved)
	return suppliers, resolved, err
}

// resolveProjectPath locates a file relative to the working directory or one
// of its parents. Absolute paths are only checked for existence.
func resolveProjectPath(relative string) (string, error) {
	if filepath.IsAbs(relative) {
		if _, err := os.Stat(relative); err != nil {
			return "", fmt.Errorf("unable to locate %s: %w", relative, err)
		}
		return relative, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
