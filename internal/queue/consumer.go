package queue

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/trickstertwo/xclock"

	"github.com/jeziellopes/observability/internal/logging"
)

// Handler processes one decoded envelope inside the restored trace context.
// Returning an error marks the message failed: at-least-once transports
// leave it for redelivery, at-most-once transports only log the loss.
type Handler func(ctx context.Context, env *Envelope) error

// Stats is a snapshot of consumer counters.
type Stats struct {
	Processed uint64
	Failed    uint64
	Poisoned  uint64
}

// Consumer drives a Transport's consume loop: decode-or-drop, carrier
// extraction, timed handler execution, outcome classification. Collaborators
// registering a Handler see the same shape regardless of which physical
// transport is active.
type Consumer struct {
	transport Transport
	prop      Propagator
	clock     xclock.Clock
	log       logging.Logger

	processed atomic.Uint64
	failed    atomic.Uint64
	poisoned  atomic.Uint64
}

func NewConsumer(t Transport, log logging.Logger) *Consumer {
	return &Consumer{
		transport: t,
		prop:      NewPropagator(),
		clock:     xclock.Default(),
		log:       log.With("component", "queue_consumer"),
	}
}

// Consume blocks until the transport stops (Close or ctx cancellation).
// Malformed messages are dropped as poison: a payload that fails structural
// validation will never become valid, so it is acknowledged and never
// retried. Handler panics are contained and classified as failures.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	return c.transport.Consume(ctx, func(ctx context.Context, payload []byte) error {
		env, err := DecodeEnvelope(payload)
		if err != nil {
			c.poisoned.Add(1)
			c.log.Warn("dropping poison message", "error", err, "bytes", len(payload))
			return nil
		}

		hctx := c.prop.Extract(ctx, env.Carrier)

		start := c.clock.Now()
		err = c.safeHandle(handler, hctx, env)
		elapsed := c.clock.Since(start)

		if err != nil {
			c.failed.Add(1)
			c.log.Warn("handler failed",
				"type", env.Type,
				"order_id", env.OrderID,
				"duration_ms", elapsed.Milliseconds(),
				"error", err,
			)
			return err
		}

		c.processed.Add(1)
		c.log.Debug("handled",
			"type", env.Type,
			"order_id", env.OrderID,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil
	})
}

func (c *Consumer) safeHandle(handler Handler, ctx context.Context, env *Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: handler panic: %v", r)
		}
	}()
	return handler(ctx, env)
}

// Close tears down the underlying transport, stopping the loop at its next
// wait boundary.
func (c *Consumer) Close(ctx context.Context) error {
	return c.transport.Close(ctx)
}

func (c *Consumer) Stats() Stats {
	return Stats{
		Processed: c.processed.Load(),
		Failed:    c.failed.Load(),
		Poisoned:  c.poisoned.Load(),
	}
}
