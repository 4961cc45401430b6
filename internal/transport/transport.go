package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("transport: client closed")

// Handler receives one inbound message. It is called on the transport's
// delivery goroutine and must not block for long.
type Handler func(topic string, payload []byte)

// Client is a publish/subscribe connection.
type Client interface {
	// Publish sends payload on topic with at-least-once delivery.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers h for topic. Subscriptions survive reconnects.
	Subscribe(ctx context.Context, topic string, h Handler) error

	// Close releases the connection. Pending deliveries are dropped.
	Close() error
}

// Status is implemented by clients that can report their connection state.
type Status interface {
	Connected() bool
}
