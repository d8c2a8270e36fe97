package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/inventory/internal/domain"
	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ProductStore = (*PgStore)(nil)

const (
	uniqueViolation    = "23505"
	barcodeUniqueIndex = "products_barcode_key"
	productColumns     = "id, name, price::text, quantity, description, barcode, category, brand, minimum_stock_level, created_at, updated_at"
	insertProductSQL   = "INSERT INTO products (id, name, price, quantity, description, barcode, category, brand, minimum_stock_level, created_at, updated_at) VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING " + productColumns
	updateProductSQL   = "UPDATE products SET name = $2, price = $3::numeric, quantity = $4, description = $5, barcode = $6, category = $7, brand = $8, minimum_stock_level = $9, created_at = $10, updated_at = $11 WHERE id = $1 RETURNING " + productColumns
	selectProductSQL   = "SELECT " + productColumns + " FROM products WHERE id = $1"
	selectProductsSQL  = "SELECT " + productColumns + " FROM products ORDER BY id"
	deleteProductSQL   = "DELETE FROM products WHERE id = $1"
	barcodeExistsSQL   = "SELECT EXISTS (SELECT 1 FROM products WHERE barcode = $1 AND ($2::bigint IS NULL OR id <> $2))"
	nextProductIDSQL   = "SELECT nextval('products_id_seq')"
)

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// NextID draws the next value of the products id sequence.
func (p *PgStore) NextID(ctx context.Context) (int64, error) {
	var id int64
	if err := p.db.QueryRow(ctx, nextProductIDSQL).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate product ID: %w", err)
	}
	return id, nil
}

// Add inserts a product. The partial unique index on barcode enforces uniqueness.
func (p *PgStore) Add(ctx context.Context, product domain.Product) (*domain.Product, error) {
	row := p.db.QueryRow(ctx, insertProductSQL, productArgs(product)...)
	added, err := scanProduct(row)
	if err != nil {
		if isBarcodeViolation(err) {
			return nil, perrors.ErrDuplicateBarcode
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &added, nil
}

// GetByID retrieves a product by its unique identifier.
func (p *PgStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(p.db.QueryRow(ctx, selectProductSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return &product, nil
}

// ListAll retrieves all products ordered by ID.
func (p *PgStore) ListAll(ctx context.Context) ([]domain.Product, error) {
	rows, err := p.db.Query(ctx, selectProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Update replaces the row stored under id.
func (p *PgStore) Update(ctx context.Context, id int64, product domain.Product) (*domain.Product, error) {
	product.ID = id
	updated, err := scanProduct(p.db.QueryRow(ctx, updateProductSQL, productArgs(product)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		if isBarcodeViolation(err) {
			return nil, perrors.ErrDuplicateBarcode
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &updated, nil
}

// Delete removes a product by its unique identifier.
func (p *PgStore) Delete(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete product by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return perrors.ErrProductNotFound
	}
	return nil
}

// BarcodeExists reports whether a product other than excludeID has exactly this barcode.
func (p *PgStore) BarcodeExists(ctx context.Context, barcode string, excludeID *int64) (bool, error) {
	var exists bool
	if err := p.db.QueryRow(ctx, barcodeExistsSQL, barcode, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check barcode: %w", err)
	}
	return exists, nil
}

func productArgs(p domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Price, p.Quantity, p.Description, p.Barcode,
		p.Category, p.Brand, p.MinimumStockLevel, p.CreatedAt, p.UpdatedAt,
	}
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Quantity, &p.Description, &p.Barcode,
		&p.Category, &p.Brand, &p.MinimumStockLevel, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func isBarcodeViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == barcodeUniqueIndex
}
