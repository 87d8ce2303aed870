// Package queue carries order events across process boundaries while
// preserving the trace context that produced them. A Transport moves raw
// envelope bytes through a physical backend; Producer and Consumer sit on
// top of it and own the carrier injection/extraction protocol, so business
// code never touches transports or carriers directly.
package queue

import (
	"context"
	"errors"
)

// ReceiveFunc is invoked by a Transport for every raw message it pulls.
// A nil return acknowledges the message (delete for at-least-once backends,
// no-op for at-most-once ones); an error leaves it to the backend's
// redelivery policy.
type ReceiveFunc func(ctx context.Context, payload []byte) error

// Transport is the strategy interface over a physical queue backend.
type Transport interface {
	// Publish sends one serialized envelope. It must not silently drop a
	// well-formed payload; backend failures are returned to the caller.
	Publish(ctx context.Context, payload []byte) error

	// Consume pulls messages and feeds them to fn until ctx is canceled or
	// Close is called. Per-message failures never terminate the loop. At
	// most one Consume may be active per transport.
	Consume(ctx context.Context, fn ReceiveFunc) error

	// Close is idempotent and causes an in-flight Consume to stop at its
	// next wait boundary, releasing the underlying connection.
	Close(ctx context.Context) error
}

var (
	// ErrTransportClosed is returned by Publish after Close.
	ErrTransportClosed = errors.New("queue: transport is closed")

	// ErrConsumeActive is returned when a second Consume is started on a
	// transport that already has a running loop.
	ErrConsumeActive = errors.New("queue: consume loop already active")

	// ErrInvalidEnvelope wraps every envelope validation failure so callers
	// can classify poison messages with errors.Is.
	ErrInvalidEnvelope = errors.New("queue: invalid envelope")
)
