package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/queue"
)

func testConfig(t *testing.T) (Config, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)

	cfg := Defaults()
	cfg.Addr = srv.Addr()
	cfg.Queue = "orders-test"
	cfg.PopTimeout = 100 * time.Millisecond
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg, srv
}

func newTransport(t *testing.T, cfg Config) *Transport {
	t.Helper()
	tr, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close(context.Background()) })
	return tr
}

func TestNew_UnreachableBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Addr = "127.0.0.1:1" // nothing listens here

	_, err := New(cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Queue = ""

	_, err := New(cfg, logging.NewNop())
	require.Error(t, err)
}

func TestPublish_AppendsToList(t *testing.T) {
	cfg, srv := testConfig(t)
	tr := newTransport(t, cfg)

	require.NoError(t, tr.Publish(context.Background(), []byte(`{"n":1}`)))
	require.NoError(t, tr.Publish(context.Background(), []byte(`{"n":2}`)))

	vals, err := srv.List(cfg.Queue)
	require.NoError(t, err)
	assert.Len(t, vals, 2)
}

func TestPublish_AfterClose(t *testing.T) {
	cfg, _ := testConfig(t)
	tr := newTransport(t, cfg)

	require.NoError(t, tr.Close(context.Background()))
	require.NoError(t, tr.Close(context.Background())) // idempotent

	err := tr.Publish(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, queue.ErrTransportClosed)
}

func TestConsume_FIFO(t *testing.T) {
	cfg, _ := testConfig(t)
	tr := newTransport(t, cfg)

	for i := 1; i <= 3; i++ {
		require.NoError(t, tr.Publish(context.Background(), []byte(fmt.Sprintf(`{"n":%d}`, i))))
	}

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Consume(context.Background(), func(_ context.Context, payload []byte) error {
			mu.Lock()
			got = append(got, string(payload))
			mu.Unlock()
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, tr.Close(context.Background()))
	<-done

	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`, `{"n":3}`}, got)
}

func TestConsume_AtMostOnce(t *testing.T) {
	cfg, srv := testConfig(t)
	tr := newTransport(t, cfg)

	require.NoError(t, tr.Publish(context.Background(), []byte(`{"n":1}`)))

	var calls int
	var mu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Consume(context.Background(), func(_ context.Context, _ []byte) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return errors.New("handler failed")
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 5*time.Second, 10*time.Millisecond)

	// The pop already removed it; a failed handler means the message is gone.
	time.Sleep(3 * cfg.PopTimeout)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	vals, _ := srv.List(cfg.Queue)
	assert.Empty(t, vals)

	require.NoError(t, tr.Close(context.Background()))
	<-done
}

func TestConsume_StopsOnClose(t *testing.T) {
	cfg, _ := testConfig(t)
	tr := newTransport(t, cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tr.Consume(context.Background(), func(_ context.Context, _ []byte) error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, tr.Close(context.Background()))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consume loop did not stop after close")
	}
}

// End-to-end through producer and consumer: the restored handler context
// belongs to the publishing trace, and raw garbage in the backend is
// dropped without stalling the loop.
func TestEndToEnd_TraceRestoredAndPoisonSkipped(t *testing.T) {
	cfg, srv := testConfig(t)
	tr := newTransport(t, cfg)

	consumer := queue.NewConsumer(tr, logging.NewNop())

	type seen struct {
		env *queue.Envelope
		sc  trace.SpanContext
	}
	var mu sync.Mutex
	var handled []seen

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Consume(context.Background(), func(ctx context.Context, env *queue.Envelope) error {
			mu.Lock()
			handled = append(handled, seen{env: env, sc: trace.SpanContextFromContext(ctx)})
			mu.Unlock()
			return nil
		})
	}()

	// Garbage pushed straight into the backend, bypassing validation.
	srv.Lpush(cfg.Queue, "not-json")

	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	pctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled,
	}))

	producer := queue.NewProducer(tr, logging.NewNop())
	require.NoError(t, producer.Publish(pctx, &queue.Envelope{
		Type:     "order_created",
		OrderID:  42,
		UserID:   7,
		UserName: "Alice",
		Total:    99.99,
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	got := handled[0]
	mu.Unlock()

	assert.Equal(t, int64(42), got.env.OrderID)
	assert.Equal(t, tid, got.sc.TraceID())
	assert.Equal(t, uint64(1), consumer.Stats().Poisoned)

	// The wire shape is the flat JSON envelope with a single traceparent key.
	var wire map[string]any
	require.NoError(t, json.Unmarshal(mustEncode(t, got.env), &wire))
	carrier, ok := wire["carrier"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, carrier, "traceparent")

	require.NoError(t, tr.Close(context.Background()))
	<-done
}

func mustEncode(t *testing.T, env *queue.Envelope) []byte {
	t.Helper()
	b, err := env.Encode()
	require.NoError(t, err)
	return b
}
