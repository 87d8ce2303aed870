// Package local implements the queue.Transport over a Redis list.
//
// Delivery is at-most-once: BRPOP removes the item from the store, so a
// handler failure after the pop loses the message with no requeue and no
// dead-letter. This is a documented, deliberately weaker guarantee suitable
// only for non-critical local development; use the managed transport where
// redelivery matters. Ordering is strictly FIFO in publish-arrival order.
package local

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/queue"
)

// Config for the Redis-list transport.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Queue is the list key both sides agree on.
	Queue string
	// PopTimeout bounds each BRPOP wait; the consume loop observes
	// cancellation at this granularity.
	PopTimeout time.Duration
	// RetryDelay is the fixed backoff after a transient backend error
	// during consume.
	RetryDelay time.Duration
}

// Defaults returns a Config suitable for a local Redis.
func Defaults() Config {
	return Config{
		Addr:       "127.0.0.1:6379",
		Queue:      "orders",
		PopTimeout: 2 * time.Second,
		RetryDelay: 500 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("local: addr required")
	}
	if c.Queue == "" {
		return fmt.Errorf("local: queue name required")
	}
	if c.PopTimeout <= 0 {
		return fmt.Errorf("local: pop timeout must be > 0, got %v", c.PopTimeout)
	}
	return nil
}

// Transport is the Redis-list queue.Transport.
type Transport struct {
	cfg    Config
	client *redis.Client
	log    logging.Logger

	consuming atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
}

var _ queue.Transport = (*Transport)(nil)

// New connects to Redis and verifies the connection before returning.
func New(cfg Config, log logging.Logger) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("local: %w", err)
	}

	return &Transport{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "local_transport", "queue", cfg.Queue),
		closed: make(chan struct{}),
	}, nil
}

// Publish pushes the payload onto the list. FIFO relative to publish order;
// multiple producers interleave in arrival order at the store.
func (t *Transport) Publish(ctx context.Context, payload []byte) error {
	select {
	case <-t.closed:
		return queue.ErrTransportClosed
	default:
	}
	if err := t.client.LPush(ctx, t.cfg.Queue, payload).Err(); err != nil {
		return fmt.Errorf("local: lpush: %w", err)
	}
	return nil
}

// Consume blocks popping items with a short timeout so absence of messages
// does not busy-spin. A popped item is already gone from the store; fn's
// error is only observable, never a requeue.
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
		default:
		}

		res, err := t.client.BRPop(ctx, t.cfg.PopTimeout, t.cfg.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // wait timeout, nothing queued
			}
			if t.stopping(ctx, err) {
				return nil
			}
			t.log.Warn("receive failed, backing off", "error", err)
			select {
			case <-time.After(t.cfg.RetryDelay):
			case <-t.closed:
				return nil
			case <-ctx.Done():
				return nil
			}
			continue
		}

		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}
		if err := fn(ctx, []byte(res[1])); err != nil {
			t.log.Warn("message lost: handler failed on at-most-once transport", "error", err)
		}
	}
}

func (t *Transport) stopping(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, redis.ErrClosed) {
		return true
	}
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

// Close is idempotent; it unblocks an in-flight BRPOP by closing the client.
func (t *Transport) Close(_ context.Context) error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.client.Close()
	})
	return err
}

func ping(c *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := c.Ping(ctx).Result()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("redis ping timeout: %w", err)
		}
		return err
	}
	if !strings.EqualFold(res, "PONG") {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}
	return nil
}
