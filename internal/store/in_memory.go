package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/abgdnv/inventory/internal/domain"
	perrors "github.com/abgdnv/inventory/internal/errors"
)

var _ ProductStore = (*InMemory)(nil)

// InMemory implements ProductStore using an in-memory map.
// Barcode uniqueness is checked under the write lock, so concurrent writers cannot both claim a barcode.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	nextID   int64
}

// NewInMemoryStore creates a new, empty in-memory store whose IDs start at 1.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[int64]domain.Product),
		nextID:   1,
	}
}

// NextID hands out monotonically increasing identifiers.
func (s *InMemory) NextID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	return id, nil
}

// Add inserts a product under its ID.
func (s *InMemory) Add(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, fmt.Errorf("product with ID %d already exists", product.ID)
	}
	if product.Barcode != "" && s.barcodeTaken(product.Barcode, product.ID) {
		return nil, perrors.ErrDuplicateBarcode
	}
	// keep NextID ahead of externally chosen IDs
	if product.ID >= s.nextID {
		s.nextID = product.ID + 1
	}
	s.products[product.ID] = product
	return &product, nil
}

// GetByID retrieves a product by its ID.
func (s *InMemory) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

// ListAll retrieves all products ordered by ID, which is also insertion order.
func (s *InMemory) ListAll(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]domain.Product, 0, len(s.products))
	for _, id := range slices.Sorted(maps.Keys(s.products)) {
		list = append(list, s.products[id])
	}
	return list, nil
}

// Update replaces the product stored under id.
func (s *InMemory) Update(_ context.Context, id int64, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return nil, perrors.ErrProductNotFound
	}
	if product.Barcode != "" && s.barcodeTaken(product.Barcode, id) {
		return nil, perrors.ErrDuplicateBarcode
	}
	product.ID = id
	s.products[id] = product
	return &product, nil
}

// Delete deletes a product by its ID.
func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[id]; !exists {
		return perrors.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// BarcodeExists reports whether any product other than excludeID has the barcode.
func (s *InMemory) BarcodeExists(_ context.Context, barcode string, excludeID *int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, p := range s.products {
		if p.Barcode == barcode && (excludeID == nil || id != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

// barcodeTaken must be called with s.mu held.
func (s *InMemory) barcodeTaken(barcode string, ownID int64) bool {
	for id, p := range s.products {
		if id != ownID && p.Barcode == barcode {
			return true
		}
	}
	return false
}
