package catalog

import (
	"maps"
	"slices"
	"sync"

	"github.com/eugenenazirov/boxkit/internal/model"
)

// Store provides the box catalog of each supplier.
type Store interface {
	Suppliers() []Supplier
	Boxes(supplierID string) ([]model.Box, error)
	SetBoxes(supplierID string, boxes []model.Box) error
}

// MemoryStore keeps catalogs in memory and guards access with a RWMutex.
// Callers always receive copies.
type MemoryStore struct {
	mu        sync.RWMutex
	order     []string
	suppliers map[string]Supplier
}

// NewMemoryStore initialises the store with the given suppliers.
func NewMemoryStore(suppliers []Supplier) *MemoryStore {
	s := &MemoryStore{suppliers: make(map[string]Supplier, len(suppliers))}
	for _, sup := range suppliers {
		if _, exists := s.suppliers[sup.ID]; !exists {
			s.order = append(s.order, sup.ID)
		}
		sup.Boxes = cloneBoxes(sup.Boxes)
		s.suppliers[sup.ID] = sup
	}
	return s
}

// Suppliers lists suppliers in load order.
func (s *MemoryStore) Suppliers() []Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Supplier, 0, len(s.order))
	for _, id := range s.order {
		sup := s.suppliers[id]
		sup.Boxes = cloneBoxes(sup.Boxes)
		out = append(out, sup)
	}
	return out
}

// Boxes returns a copy of a supplier's catalog.
func (s *MemoryStore) Boxes(supplierID string) ([]model.Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[supplierID]
	if !ok {
		return nil, ErrUnknownSupplier
	}
	return cloneBoxes(sup.Boxes), nil
}

// SetBoxes validates and replaces a known supplier's catalog.
func (s *MemoryStore) SetBoxes(supplierID string, boxes []model.Box) error {
	if err := ValidateBoxes(boxes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sup, ok := s.suppliers[supplierID]
	if !ok {
		return ErrUnknownSupplier
	}
	sup.Boxes = cloneBoxes(boxes)
	s.suppliers[supplierID] = sup
	return nil
}

func cloneBoxes(src []model.Box) []model.Box {
	out := make([]model.Box, len(src))
	for i, b := range src {
		b.Colors = slices.Clone(b.Colors)
		b.Prices = maps.Clone(b.Prices)
		out[i] = b
	}
	return out
}
