package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/boxkit/internal/application"
	"github.com/eugenenazirov/boxkit/internal/config"
	"github.com/eugenenazirov/boxkit/internal/logging"
)

var signalNotify = signal.Notify

type serverFlags struct {
	overrides config.CLIOverrides
	logLevel  string
}

// parseFlags maps command-line flags onto config overrides. Flags left at
// their sentinel defaults stay nil so lower-precedence sources apply.
func parseFlags(args []string) (serverFlags, error) {
	app := kingpin.New("boxkit-server", "Box optimizer - picks the cheapest shipping boxes for an order")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	port := app.Flag("port", "HTTP port exposed by the service").String()
	supplier := app.Flag("supplier", "Default supplier id").String()
	catalogFile := app.Flag("catalog-file", "Path to a YAML box catalog replacing the embedded one").String()
	padding := app.Flag("padding", "Clearance in cm subtracted from each inner box dimension").Default("-1").Float64()
	referenceQuantity := app.Flag("reference-quantity", "Order quantity used to pick the price tier").Default("-1").Int()
	shippingRate := app.Flag("shipping-rate", "Shipping cost per kg of dimensional weight (0 disables)").Default("-1").Float64()
	maxBoxes := app.Flag("max-boxes", "Upper bound on boxes per solution").Default("-1").Int()
	searchBudget := app.Flag("search-budget", "Time budget for the exact search before falling back to greedy").Duration()
	rateLimitRPS := app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurst := app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	trustedProxies := app.Flag("trusted-proxy", "Address or CIDR range of a proxy whose X-Forwarded-For is trusted (repeatable)").Strings()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").Default("info").String()

	if _, err := app.Parse(args); err != nil {
		return serverFlags{}, err
	}

	flags := serverFlags{
		overrides: config.CLIOverrides{ConfigFile: *configFile},
		logLevel:  *logLevel,
	}
	o := &flags.overrides

	if *port != "" {
		o.Port = port
	}
	if *supplier != "" {
		o.Supplier = supplier
	}
	if *catalogFile != "" {
		o.CatalogFile = catalogFile
	}
	if *padding >= 0 {
		o.Padding = padding
	}
	if *referenceQuantity >= 0 {
		o.ReferenceQuantity = referenceQuantity
	}
	if *shippingRate >= 0 {
		o.ShippingRatePerKg = shippingRate
	}
	if *maxBoxes >= 0 {
		o.MaxBoxes = maxBoxes
	}
	if *searchBudget > 0 {
		o.SearchBudget = searchBudget
	}
	if *rateLimitRPS >= 0 {
		o.RateLimitRPS = rateLimitRPS
	}
	if *rateLimitBurst >= 0 {
		o.RateLimitBurst = rateLimitBurst
	}
	if len(*trustedProxies) > 0 {
		o.TrustedProxies = *trustedProxies
	}

	return flags, nil
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "boxkit-server: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(&flags.overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(flags.logLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
