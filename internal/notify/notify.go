// Package notify is the consumer-side business handler: it turns decoded
// order envelopes into notifications. Spans opened here nest under the
// producer's trace because the consumer loop hands us a restored context.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/orders"
	"github.com/jeziellopes/observability/internal/queue"
)

// Handler sends notifications for order events.
type Handler struct {
	log    logging.Logger
	tracer trace.Tracer
}

func New(log logging.Logger) *Handler {
	return &Handler{
		log:    log.With("component", "notify"),
		tracer: otel.Tracer("notify"),
	}
}

// Handle implements queue.Handler.
func (h *Handler) Handle(ctx context.Context, env *queue.Envelope) error {
	switch env.Type {
	case orders.EventOrderCreated:
		return h.orderCreated(ctx, env)
	default:
		return fmt.Errorf("notify: unhandled message type %q", env.Type)
	}
}

func (h *Handler) orderCreated(ctx context.Context, env *queue.Envelope) error {
	_, span := h.tracer.Start(ctx, "notify.send",
		trace.WithAttributes(
			attribute.Int64("order.id", env.OrderID),
			attribute.Int64("user.id", env.UserID),
		),
	)
	defer span.End()

	notificationID := uuid.NewString()
	span.SetAttributes(attribute.String("notification.id", notificationID))

	// Delivery to a real channel (email, push) lives outside this system;
	// the notification is recorded in the log stream.
	h.log.Info("notification sent",
		"notification_id", notificationID,
		"order_id", env.OrderID,
		"user_id", env.UserID,
		"user_name", env.UserName,
		"total", env.Total,
	)
	return nil
}
