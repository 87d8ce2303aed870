package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/trickstertwo/xclock"

	"github.com/jeziellopes/observability/internal/logging"
)

// Producer publishes envelopes through a Transport. Callers hand it
// envelopes without carriers; the producer stamps the timestamp and injects
// the caller's active trace context before serializing. Safe for concurrent
// use by multiple callers.
type Producer struct {
	transport Transport
	prop      Propagator
	clock     xclock.Clock
	log       logging.Logger
}

func NewProducer(t Transport, log logging.Logger) *Producer {
	return &Producer{
		transport: t,
		prop:      NewPropagator(),
		clock:     xclock.Default(),
		log:       log.With("component", "queue_producer"),
	}
}

// Publish injects the trace context from ctx, encodes the envelope, and
// hands it to the transport. The passed envelope is not mutated.
func (p *Producer) Publish(ctx context.Context, env *Envelope) error {
	e := *env
	if e.Timestamp == "" {
		e.Timestamp = p.clock.Now().UTC().Format(time.RFC3339Nano)
	}
	if carrier := p.prop.Inject(ctx); carrier != nil {
		e.Carrier = carrier
	}

	payload, err := e.Encode()
	if err != nil {
		return err
	}

	if err := p.transport.Publish(ctx, payload); err != nil {
		p.log.Error("publish failed",
			"type", e.Type,
			"order_id", e.OrderID,
			"error", err,
		)
		return fmt.Errorf("queue: publish %s: %w", e.Type, err)
	}

	p.log.Debug("published", "type", e.Type, "order_id", e.OrderID)
	return nil
}
