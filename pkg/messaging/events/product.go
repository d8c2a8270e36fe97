// Package events contains the payloads published on product state changes.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abgdnv/inventory/pkg/messaging"
)

// ProductEvent is published after a product was created, updated or deleted.
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  int64     `json:"product_id"`
	Name       string    `json:"name,omitempty"`
	Barcode    string    `json:"barcode,omitempty"`
	Price      string    `json:"price,omitempty"`
	Quantity   int64     `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	ProductCreated = "created"
	ProductUpdated = "updated"
	ProductDeleted = "deleted"
)

func (e ProductEvent) Subject() string {
	switch e.Type {
	case ProductCreated:
		return messaging.ProductCreatedSubject
	case ProductDeleted:
		return messaging.ProductDeletedSubject
	default:
		return messaging.ProductUpdatedSubject
	}
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// MessageID identifies one state change of one product.
func (e ProductEvent) MessageID() string {
	return fmt.Sprintf("product-%d-%s-%d", e.ProductID, e.Type, e.OccurredAt.UnixMicro())
}
