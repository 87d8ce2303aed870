package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func testSpanContext(t *testing.T) trace.SpanContext {
	t.Helper()
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
}

func TestPropagator_RoundTrip(t *testing.T) {
	p := NewPropagator()
	sc := testSpanContext(t)
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	carrier := p.Inject(ctx)
	require.NotNil(t, carrier)

	restored := p.Extract(context.Background(), carrier)
	rsc := trace.SpanContextFromContext(restored)

	require.True(t, rsc.IsValid())
	assert.Equal(t, sc.TraceID(), rsc.TraceID())
	assert.Equal(t, sc.SpanID(), rsc.SpanID())
	assert.True(t, rsc.IsRemote())
	assert.True(t, rsc.IsSampled())
}

func TestPropagator_InjectUsesW3CTraceparent(t *testing.T) {
	p := NewPropagator()
	ctx := trace.ContextWithSpanContext(context.Background(), testSpanContext(t))

	carrier := p.Inject(ctx)
	require.Len(t, carrier, 1)
	assert.Equal(t,
		"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		carrier["traceparent"],
	)
}

func TestPropagator_InjectWithoutActiveContext(t *testing.T) {
	p := NewPropagator()
	assert.Nil(t, p.Inject(context.Background()))
}

func TestPropagator_ExtractAbsentCarrier(t *testing.T) {
	p := NewPropagator()

	for name, carrier := range map[string]map[string]string{
		"nil":          nil,
		"empty":        {},
		"unrecognized": {"x-custom": "nope"},
		"malformed":    {"traceparent": "not-a-traceparent"},
	} {
		t.Run(name, func(t *testing.T) {
			restored := p.Extract(context.Background(), carrier)
			sc := trace.SpanContextFromContext(restored)
			// No parent restored; downstream spans start a fresh root.
			assert.False(t, sc.IsValid())
		})
	}
}
