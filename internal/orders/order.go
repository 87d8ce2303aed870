// Package orders holds the order domain: the model, an in-memory store,
// and the service that publishes order events through the queue.
package orders

import (
	"context"
	"errors"
	"time"
)

// Event type constants for order domain events.
const (
	EventOrderCreated = "order_created"
)

// Order is the domain model.
type Order struct {
	ID        int64     `json:"orderId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrNotFound     = errors.New("orders: not found")
	ErrInvalidOrder = errors.New("orders: invalid order")
)

// EventPublisher emits order domain events. Implementations: the queue
// publisher and a noop for queue-less runs.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
}
