package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/boxkit/internal/model"
)

// DefaultSupplier is used when a request does not name a supplier.
const DefaultSupplier = "satar"

var (
	// ErrUnknownSupplier is returned for a supplier id that is not loaded.
	ErrUnknownSupplier = errors.New("unknown supplier")
	// ErrInvalidCatalog is returned when a catalog fails validation.
	ErrInvalidCatalog = errors.New("invalid box catalog")
)

//go:embed suppliers.yaml
var embeddedCatalog []byte

// Supplier is a packaging vendor and the boxes it sells.
type Supplier struct {
	ID    string      `json:"id" yaml:"id"`
	Name  string      `json:"name" yaml:"name"`
	Boxes []model.Box `json:"boxes" yaml:"boxes"`
}

type document struct {
	Suppliers []Supplier `yaml:"suppliers"`
}

// Default returns the embedded supplier catalogs.
func Default() ([]Supplier, error) {
	return Parse(embeddedCatalog)
}

// LoadFile reads supplier catalogs from a YAML file.
func LoadFile(path string) ([]Supplier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) ([]Supplier, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Suppliers) == 0 {
		return nil, fmt.Errorf("%w: no suppliers", ErrInvalidCatalog)
	}

	var errs error
	seen := make(map[string]struct{}, len(doc.Suppliers))
	for _, s := range doc.Suppliers {
		if s.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: supplier without id", ErrInvalidCatalog))
			continue
		}
		if _, dup := seen[s.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate supplier %q", ErrInvalidCatalog, s.ID))
		}
		seen[s.ID] = struct{}{}
		errs = multierr.Append(errs, ValidateBoxes(s.Boxes))
	}
	if errs != nil {
		return nil, errs
	}
	return doc.Suppliers, nil
}

// ValidateBoxes checks ids are present and unique, dimensions positive and
// price thresholds positive. Every violation is reported.
func ValidateBoxes(boxes []model.Box) error {
	if len(boxes) == 0 {
		return fmt.Errorf("%w: no boxes", ErrInvalidCatalog)
	}

	var errs error
	ids := make(map[string]struct{}, len(boxes))
	for i, b := range boxes {
		if b.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("%w: box %d has no id", ErrInvalidCatalog, i))
		} else if _, dup := ids[b.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: duplicate box id %q", ErrInvalidCatalog, b.ID))
		}
		ids[b.ID] = struct{}{}

		if !b.Dims().Positive() {
			errs = multierr.Append(errs, fmt.Errorf("%w: box %q needs positive dimensions", ErrInvalidCatalog, b.ID))
		}
		for tier, price := range b.Prices {
			if tier <= 0 || price < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%w: box %q has invalid price tier %d", ErrInvalidCatalog, b.ID, tier))
			}
		}
	}
	return errs
}
