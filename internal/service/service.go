// Package service provides the implementation of product-related business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/abgdnv/inventory/internal/domain"
	perrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/store"
	"github.com/abgdnv/inventory/pkg/messaging"
	"github.com/abgdnv/inventory/pkg/messaging/events"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/abgdnv/inventory/internal/service")

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// CreateProduct validates data and stores a new product.
	// Returns a validation error for malformed input and ErrDuplicateBarcode for a taken barcode.
	CreateProduct(ctx context.Context, data domain.Attributes) (*domain.Product, error)

	// GetProduct retrieves a single product by its raw request identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	GetProduct(ctx context.Context, rawID *string) (*domain.Product, error)

	// ListProducts filters, searches and paginates the product collection.
	ListProducts(ctx context.Context, query ListQuery) (*domain.ProductPage, error)

	// UpdateProduct merges the allowed fields of data onto an existing product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateProduct(ctx context.Context, rawID *string, data domain.Attributes) (*domain.Product, error)

	// DeleteProduct removes a product by its raw request identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteProduct(ctx context.Context, rawID *string) error
}

// ListQuery holds the raw list parameters. Empty Category or Search disables that filter;
// nil Page or PageSize selects the default.
type ListQuery struct {
	Category string
	Search   string
	Page     *string
	PageSize *string
}

// updatableFields is the allow-list merged by UpdateProduct. Other keys are ignored.
var updatableFields = []string{
	domain.FieldName,
	domain.FieldDescription,
	domain.FieldBarcode,
	domain.FieldCategory,
	domain.FieldBrand,
	domain.FieldPrice,
	domain.FieldQuantity,
	domain.FieldMinimumStockLevel,
}

// Service implements ProductService.
type Service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

var _ ProductService = (*Service)(nil)

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new instance of ProductService with the provided repository.
// A nil publisher disables product events.
func NewService(repo store.ProductStore, publisher messaging.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	s := &Service{
		repository: repo,
		publisher:  publisher,
		logger:     logger.With("component", "service"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProduct validates data in a fixed order and stores the new product.
func (s *Service) CreateProduct(ctx context.Context, data domain.Attributes) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	if err := domain.ValidateRequiredFields(data, domain.FieldName, domain.FieldPrice, domain.FieldQuantity); err != nil {
		return nil, err
	}
	price, err := domain.ValidatePrice(data[domain.FieldPrice])
	if err != nil {
		return nil, err
	}
	quantity, err := domain.ValidateQuantity(data[domain.FieldQuantity])
	if err != nil {
		return nil, err
	}
	barcode, err := domain.ValidateText(domain.FieldBarcode, data[domain.FieldBarcode])
	if err != nil {
		return nil, err
	}
	if err := s.checkBarcode(ctx, barcode, nil); err != nil {
		return nil, err
	}
	var minStock int64
	if data.Has(domain.FieldMinimumStockLevel) {
		if minStock, err = domain.ValidateMinimumStockLevel(data[domain.FieldMinimumStockLevel]); err != nil {
			return nil, err
		}
	}
	name, err := domain.ValidateName(data[domain.FieldName])
	if err != nil {
		return nil, err
	}
	text, err := optionalText(data, domain.FieldDescription, domain.FieldCategory, domain.FieldBrand)
	if err != nil {
		return nil, err
	}

	id, err := s.repository.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate product ID: %w", err)
	}
	now := s.timestamp()
	created, err := s.repository.Add(ctx, domain.Product{
		ID:                id,
		Name:              name,
		Price:             domain.FormatPrice(price),
		Quantity:          quantity,
		Description:       text[domain.FieldDescription],
		Barcode:           barcode,
		Category:          text[domain.FieldCategory],
		Brand:             text[domain.FieldBrand],
		MinimumStockLevel: minStock,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.publish(ctx, events.ProductCreated, created)
	return created, nil
}

// GetProduct retrieves a product by its raw ID.
func (s *Service) GetProduct(ctx context.Context, rawID *string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	id, err := domain.ValidateProductID(rawID)
	if err != nil {
		return nil, err
	}
	product, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return product, nil
}

// ListProducts returns one page of the products matching the category and search filters.
func (s *Service) ListProducts(ctx context.Context, query ListQuery) (*domain.ProductPage, error) {
	ctx, span := tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	page, pageSize, err := domain.ValidatePagination(query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}
	products, err := s.repository.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	matched := make([]domain.Product, 0, len(products))
	search := strings.ToLower(query.Search)
	for _, p := range products {
		if query.Category != "" && p.Category != query.Category {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, p)
	}

	count := len(matched)
	totalPages := (count + pageSize - 1) / pageSize
	results := []domain.Product{}
	// page-1 is compared first so huge page numbers cannot overflow the offset
	if page-1 < totalPages {
		start := (page - 1) * pageSize
		end := min(start+pageSize, count)
		results = matched[start:end]
	}

	return &domain.ProductPage{
		Count:      count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Results:    results,
	}, nil
}

// UpdateProduct validates the supplied fields and merges the allowed ones onto the stored product.
// Validation runs barcode, price, quantity, minimum stock level, then text fields; the first
// failure aborts without writing.
func (s *Service) UpdateProduct(ctx context.Context, rawID *string, data domain.Attributes) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	id, err := domain.ValidateProductID(rawID)
	if err != nil {
		return nil, err
	}
	current, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}

	updated := *current
	if data.Has(domain.FieldBarcode) {
		barcode, err := domain.ValidateText(domain.FieldBarcode, data[domain.FieldBarcode])
		if err != nil {
			return nil, err
		}
		if barcode != current.Barcode {
			if err := s.checkBarcode(ctx, barcode, &id); err != nil {
				return nil, err
			}
		}
		updated.Barcode = barcode
	}
	if data.Has(domain.FieldPrice) {
		price, err := domain.ValidatePrice(data[domain.FieldPrice])
		if err != nil {
			return nil, err
		}
		updated.Price = domain.FormatPrice(price)
	}
	if data.Has(domain.FieldQuantity) {
		if updated.Quantity, err = domain.ValidateQuantity(data[domain.FieldQuantity]); err != nil {
			return nil, err
		}
	}
	if data.Has(domain.FieldMinimumStockLevel) {
		if updated.MinimumStockLevel, err = domain.ValidateMinimumStockLevel(data[domain.FieldMinimumStockLevel]); err != nil {
			return nil, err
		}
	}
	if data.Has(domain.FieldName) {
		if updated.Name, err = domain.ValidateName(data[domain.FieldName]); err != nil {
			return nil, err
		}
	}
	text, err := optionalText(data, domain.FieldDescription, domain.FieldCategory, domain.FieldBrand)
	if err != nil {
		return nil, err
	}
	if data.Has(domain.FieldDescription) {
		updated.Description = text[domain.FieldDescription]
	}
	if data.Has(domain.FieldCategory) {
		updated.Category = text[domain.FieldCategory]
	}
	if data.Has(domain.FieldBrand) {
		updated.Brand = text[domain.FieldBrand]
	}
	if ignored := ignoredFields(data); len(ignored) > 0 {
		s.logger.DebugContext(ctx, "ignoring fields outside the update allow-list", "product_id", id, "fields", ignored)
	}
	updated.UpdatedAt = s.timestamp()

	saved, err := s.repository.Update(ctx, id, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update product with ID %d: %w", id, err)
	}

	s.publish(ctx, events.ProductUpdated, saved)
	return saved, nil
}

// DeleteProduct deletes a product by its raw ID.
func (s *Service) DeleteProduct(ctx context.Context, rawID *string) error {
	ctx, span := tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	id, err := domain.ValidateProductID(rawID)
	if err != nil {
		return err
	}
	product, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	if err := s.repository.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product with ID %d: %w", id, err)
	}

	s.publish(ctx, events.ProductDeleted, product)
	return nil
}

// checkBarcode fails with ErrDuplicateBarcode when a non-empty barcode belongs to another product.
func (s *Service) checkBarcode(ctx context.Context, barcode string, excludeID *int64) error {
	if barcode == "" {
		return nil
	}
	taken, err := s.repository.BarcodeExists(ctx, barcode, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check barcode: %w", err)
	}
	if taken {
		return perrors.ErrDuplicateBarcode
	}
	return nil
}

// publish emits a product event. Delivery is best effort.
func (s *Service) publish(ctx context.Context, eventType string, p *domain.Product) {
	event := events.ProductEvent{
		Type:       eventType,
		ProductID:  p.ID,
		Name:       p.Name,
		Barcode:    p.Barcode,
		Price:      p.Price,
		Quantity:   p.Quantity,
		OccurredAt: s.timestamp(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish product event",
			"subject", event.Subject(), "product_id", p.ID, "error", err)
	}
}

// timestamp is the current time in UTC at the precision every store can keep.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// optionalText validates the free-text fields present in data. Missing fields map to "".
func optionalText(data domain.Attributes, fields ...string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		value, err := domain.ValidateText(field, data[field])
		if err != nil {
			return nil, err
		}
		out[field] = value
	}
	return out, nil
}

// ignoredFields lists the keys of data that UpdateProduct does not merge, sorted.
func ignoredFields(data domain.Attributes) []string {
	var ignored []string
	for key := range data {
		if !slices.Contains(updatableFields, key) {
			ignored = append(ignored, key)
		}
	}
	slices.Sort(ignored)
	return ignored
}

func matchesSearch(p domain.Product, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Barcode), search) ||
		strings.Contains(strings.ToLower(p.Description), search)
}
