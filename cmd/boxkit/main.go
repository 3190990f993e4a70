package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/boxkit/internal/catalog"
	"github.com/eugenenazirov/boxkit/internal/logging"
	"github.com/eugenenazirov/boxkit/internal/model"
	"github.com/eugenenazirov/boxkit/internal/optimizer"
	"github.com/eugenenazirov/boxkit/internal/packing"
	"github.com/eugenenazirov/boxkit/internal/pricing"
)

type optimizeOutput struct {
	Supplier string `json:"supplier"`
	optimizer.Result
	Display string `json:"display,omitempty"`
}

type rankOutput struct {
	Supplier string            `json:"supplier"`
	Best     *string           `json:"best"`
	Rankings []packing.Ranking `json:"rankings"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := kingpin.New("boxkit", "Offline box optimizer for order items described in a JSON file")
	app.UsageWriter(stderr).ErrorWriter(stderr)
	app.Terminate(nil)

	catalogFile := app.Flag("catalog-file", "YAML box catalog (embedded catalog when empty)").String()
	supplier := app.Flag("supplier", "Supplier id").Default(catalog.DefaultSupplier).String()
	padding := app.Flag("padding", "Clearance in cm subtracted from each inner box dimension").Default("0").Float64()
	logLevel := app.Flag("log-level", "Log level").Default("warn").String()

	optimizeCmd := app.Command("optimize", "Find the cheapest box assignment for the items")
	optimizeItems := optimizeCmd.Arg("items", "JSON file with an array of items").Required().ExistingFile()
	referenceQuantity := optimizeCmd.Flag("reference-quantity", "Order quantity used to pick the price tier").Default("25").Int()
	shippingRate := optimizeCmd.Flag("shipping-rate", "Shipping cost per kg of dimensional weight").Default("0").Float64()
	maxBoxes := optimizeCmd.Flag("max-boxes", "Upper bound on boxes per solution").Default("5").Int()
	searchBudget := optimizeCmd.Flag("search-budget", "Time budget for the depth-first search used for 7 to 10 units").Default("500ms").Duration()

	rankCmd := app.Command("rank", "Rank single boxes by how well they hold all the items")
	rankItems := rankCmd.Arg("items", "JSON file with an array of items").Required().ExistingFile()

	command, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "boxkit: %v\n", err)
		return 2
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "boxkit: %v\n", err)
		return 2
	}
	defer func() {
		_ = logger.Sync()
	}()

	boxes, err := loadBoxes(*catalogFile, *supplier)
	if err != nil {
		logger.Error("failed to load catalog", zap.String("supplier", *supplier), zap.Error(err))
		return 1
	}

	var out any
	switch command {
	case optimizeCmd.FullCommand():
		items, err := readItems(*optimizeItems)
		if err != nil {
			logger.Error("failed to read items", zap.Error(err))
			return 1
		}
		opts := optimizer.Options{
			Padding:           *padding,
			ReferenceQuantity: *referenceQuantity,
			ShippingRatePerKg: *shippingRate,
			DimensionalFactor: pricing.DefaultDimensionalFactor,
			MaxBoxes:          *maxBoxes,
			SearchBudget:      *searchBudget,
		}
		result := optimizer.New().Optimize(items, boxes, opts)
		output := optimizeOutput{Supplier: *supplier, Result: result}
		if result.Optimal != nil {
			output.Display = pricing.FormatCost(result.Optimal.TotalCost)
		}
		logger.Debug("optimization finished",
			zap.String("strategy", string(result.Analysis.Strategy)),
			zap.Int("items", result.Analysis.ItemCount),
		)
		out = output
	case rankCmd.FullCommand():
		items, err := readItems(*rankItems)
		if err != nil {
			logger.Error("failed to read items", zap.Error(err))
			return 1
		}
		output := rankOutput{Supplier: *supplier, Rankings: packing.Rank(boxes, items, *padding)}
		if best, ok := packing.BestOf(output.Rankings); ok {
			output.Best = &best.ID
		}
		out = output
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("failed to write output", zap.Error(err))
		return 1
	}
	return 0
}

func loadBoxes(path, supplierID string) ([]model.Box, error) {
	var (
		suppliers []catalog.Supplier
		err       error
	)
	if path == "" {
		suppliers, err = catalog.Default()
	} else {
		suppliers, err = catalog.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return catalog.NewMemoryStore(suppliers).Boxes(supplierID)
}

func readItems(path string) ([]model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items %s: %w", path, err)
	}
	for i, it := range items {
		if !it.Dims().Positive() {
			return nil, fmt.Errorf("item %d needs positive dimensions", i)
		}
	}
	return items, nil
}
