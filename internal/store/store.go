// Package store provides an interface for product storage operations.
package store

import (
	"context"

	"github.com/abgdnv/inventory/internal/domain"
)

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// Implementations never hold a product whose non-empty barcode collides with another one.
type ProductStore interface {
	// NextID returns a fresh identifier that has never been handed out before.
	NextID(ctx context.Context) (int64, error)

	// Add inserts a fully validated product under its ID.
	// Returns ErrDuplicateBarcode if another product already uses its non-empty barcode.
	Add(ctx context.Context, product domain.Product) (*domain.Product, error)

	// GetByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// ListAll returns every product in ascending ID order.
	// Returns an empty slice if no products exist.
	ListAll(ctx context.Context) ([]domain.Product, error)

	// Update replaces the product stored under id.
	// Returns ErrProductNotFound if no product exists with the given ID and
	// ErrDuplicateBarcode if its barcode is used by a different product.
	Update(ctx context.Context, id int64, product domain.Product) (*domain.Product, error)

	// Delete removes a product by its ID.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Delete(ctx context.Context, id int64) error

	// BarcodeExists reports whether a product other than excludeID has exactly this barcode.
	BarcodeExists(ctx context.Context, barcode string, excludeID *int64) (bool, error)
}
