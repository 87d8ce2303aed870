// Package queuetest provides a channel-backed Transport for tests: FIFO,
// at-most-once, no external backend.
package queuetest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jeziellopes/observability/internal/queue"
)

// Transport is an in-memory queue.Transport.
type Transport struct {
	ch chan []byte

	consuming atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
}

var _ queue.Transport = (*Transport)(nil)

// New creates a transport with the given buffer capacity.
func New(buffer int) *Transport {
	if buffer < 1 {
		buffer = 64
	}
	return &Transport{
		ch:     make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (t *Transport) Publish(ctx context.Context, payload []byte) error {
	select {
	case <-t.closed:
		return queue.ErrTransportClosed
	default:
	}
	p := make([]byte, len(payload))
	copy(p, payload)
	select {
	case t.ch <- p:
		return nil
	case <-t.closed:
		return queue.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) Consume(ctx context.Context, fn queue.ReceiveFunc) error {
	if !t.consuming.CompareAndSwap(false, true) {
		return queue.ErrConsumeActive
	}
	defer t.consuming.Store(false)

	for {
		select {
		case <-t.closed:
			return nil
		case <-ctx.Done():
			return nil
		case payload := <-t.ch:
			// At-most-once: fn's error is the caller's to observe.
			_ = fn(ctx, payload)
		}
	}
}

func (t *Transport) Close(_ context.Context) error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	return nil
}

// Len reports the number of buffered messages.
func (t *Transport) Len() int { return len(t.ch) }
