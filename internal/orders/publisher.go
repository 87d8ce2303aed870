package orders

import (
	"context"

	"github.com/jeziellopes/observability/internal/queue"
)

// QueuePublisher emits order events through the queue producer. Carrier
// injection happens inside the producer; this layer only shapes envelopes.
type QueuePublisher struct {
	producer *queue.Producer
}

func NewQueuePublisher(p *queue.Producer) *QueuePublisher {
	return &QueuePublisher{producer: p}
}

var _ EventPublisher = (*QueuePublisher)(nil)

func (p *QueuePublisher) PublishOrderCreated(ctx context.Context, o *Order) error {
	return p.producer.Publish(ctx, &queue.Envelope{
		Type:     EventOrderCreated,
		OrderID:  o.ID,
		UserID:   o.UserID,
		UserName: o.UserName,
		Total:    o.Total,
	})
}
