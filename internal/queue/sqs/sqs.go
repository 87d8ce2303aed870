// Package sqs implements the queue.Transport over AWS SQS.
//
// Delivery is at-least-once: a received message is deleted only after the
// handler succeeds. On failure it is deliberately left in place and becomes
// visible again once the queue's visibility timeout elapses, which is the
// transport's retry mechanism. No ordering is guaranteed across receive
// batches; every envelope must be independently processable.
package sqs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/queue"
)

// Client is the slice of the SQS API this transport uses. Satisfied by
// *sqs.Client; tests substitute an in-memory fake.
type Client interface {
	SendMessage(ctx context.Context, params *awssqs.SendMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
}

// Config for the SQS transport.
type Config struct {
	// QueueURL is required; construction fails fast without it.
	QueueURL string
	Region   string
	// Endpoint overrides the service endpoint for local emulation.
	Endpoint string

	// WaitTime is the long-poll bound per receive call (SQS caps it at 20s).
	WaitTime time.Duration
	// BatchSize is the max messages per receive call (SQS caps it at 10).
	BatchSize int32
	// RetryDelay is the fixed backoff after a failed receive call.
	RetryDelay time.Duration
}

// Defaults returns a Config with the queue URL left for the caller.
func Defaults() Config {
	return Config{
		Region:     "us-east-1",
		WaitTime:   10 * time.Second,
		BatchSize:  10,
		RetryDelay: 2 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.QueueURL == "" {
		return fmt.Errorf("sqs: queue URL required")
	}
	if c.WaitTime < 0 || c.WaitTime > 20*time.Second {
		return fmt.Errorf("sqs: wait time must be within [0s, 20s], got %v", c.WaitTime)
	}
	if c.BatchSize < 1 || c.BatchSize > 10 {
		return fmt.Errorf("sqs: batch size must be within [1, 10], got %d", c.BatchSize)
	}
	return nil
}

// Transport is the SQS queue.Transport.
type Transport struct {
	cfg    Config
	client Client
	log    logging.Logger

	consuming atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
}

var _ queue.Transport = (*Transport)(nil)

// New builds the AWS client from the default credential chain and wraps it.
func New(ctx context.Context, cfg Config, log logging.Logger) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("sqs: load aws config: %w", err)
	}

	client := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg, log)
}

// NewWithClient wraps an existing client; used by tests and emulators.
func NewWithClient(client Client, cfg Config, log logging.Logger) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transport{
		cfg:    cfg,
		client: client,
		log:    log.With("component", "sqs_transport"),
		closed: make(chan struct{}),
	}, nil
}

// Publish sends the payload as the message body.
func (t *Transport) Publish(ctx context.Context, payload []byte) error {
	select {
	case <-t.closed:
		return queue.ErrTransportClosed
	default:
	}
	_, err := t.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(t.cfg.QueueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sqs: send message: %w", err)
	}
	return nil
}

// Consume long-polls for batches and deletes each message only when fn
// succeeds. Receive failures (network, auth, throttling) back off a fixed
// interval and retry; they never terminate the loop.
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

		out, err := t.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:            aws.String(t.cfg.QueueURL),
			MaxNumberOfMessages: t.cfg.BatchSize,
			WaitTimeSeconds:     int32(t.cfg.WaitTime / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
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

		for _, msg := range out.Messages {
			if msg.Body == nil {
				continue
			}
			if err := fn(ctx, []byte(*msg.Body)); err != nil {
				// Not deleted: the message reappears after the visibility
				// timeout, which is this transport's redelivery path.
				continue
			}
			if _, err := t.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
				QueueUrl:      aws.String(t.cfg.QueueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				t.log.Warn("delete failed, message may be redelivered", "error", err)
			}
		}
	}
}

// Close stops an in-flight consume loop at its next wait boundary. The SQS
// client holds no persistent connection, so there is nothing else to tear
// down.
func (t *Transport) Close(_ context.Context) error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	return nil
}
