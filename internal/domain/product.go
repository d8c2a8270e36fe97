// Package domain holds the inventory entities and the validators guarding them.
package domain

import "time"

// Product is one inventory item. Price holds the exact decimal text, never a float.
type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Price             string    `json:"price"`
	Quantity          int64     `json:"quantity"`
	Description       string    `json:"description"`
	Barcode           string    `json:"barcode"`
	Category          string    `json:"category"`
	Brand             string    `json:"brand"`
	MinimumStockLevel int64     `json:"minimum_stock_level"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Attributes is raw, field-keyed product input as decoded from a request body.
// Presence of a key matters: absent keys are left untouched on update.
type Attributes map[string]any

// Has reports whether key is present, regardless of its value.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Field names accepted in Attributes.
const (
	FieldName              = "name"
	FieldPrice             = "price"
	FieldQuantity          = "quantity"
	FieldDescription       = "description"
	FieldBarcode           = "barcode"
	FieldCategory          = "category"
	FieldBrand             = "brand"
	FieldMinimumStockLevel = "minimum_stock_level"
)

// ProductPage is the paginated list envelope.
type ProductPage struct {
	Count      int       `json:"count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
	Results    []Product `json:"results"`
}
