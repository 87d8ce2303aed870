package queue

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
)

// Propagator serializes the active trace context into a flat carrier map
// and back, using the same W3C trace-context convention as HTTP header
// propagation. A single extraction routine therefore works regardless of
// which boundary the context arrived over.
type Propagator struct {
	prop propagation.TextMapPropagator
}

func NewPropagator() Propagator {
	return Propagator{prop: propagation.TraceContext{}}
}

// Inject captures the trace context active in ctx as a carrier map.
// Returns nil when ctx carries no span context.
func (p Propagator) Inject(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	p.prop.Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	return carrier
}

// Extract restores the trace context serialized in carrier onto ctx. An
// absent, empty, or unrecognizable carrier yields ctx unchanged, so
// downstream spans still get created as fresh roots rather than failing.
func (p Propagator) Extract(ctx context.Context, carrier map[string]string) context.Context {
	if len(carrier) == 0 {
		return ctx
	}
	return p.prop.Extract(ctx, propagation.MapCarrier(carrier))
}
