// Package messaging defines the event publishing contract used by the services.
package messaging

import (
	"context"
)

const (
	ProductCreatedSubject = "products.created"
	ProductUpdatedSubject = "products.updated"
	ProductDeletedSubject = "products.deleted"
	// ProductSubjects matches every product event; used when declaring the stream.
	ProductSubjects = "products.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// Identified is implemented by events carrying a stable id. Brokers use it to drop redelivered duplicates.
type Identified interface {
	MessageID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
