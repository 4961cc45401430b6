// Package memory provides an in-process transport broker.
//
// Messages are delivered by a single dispatcher goroutine in publish order,
// to handlers subscribed to the exact topic. Handlers may publish; the
// queue is unbounded so that never deadlocks.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/gatecam/internal/transport"
)

type delivery struct {
	topic   string
	payload []byte
}

// Broker is an in-process transport.Client. Every client of the process
// shares one Broker value.
type Broker struct {
	mu     sync.Mutex
	subs   map[string][]transport.Handler
	queue  []delivery
	closed bool

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
	logger *slog.Logger
}

var _ transport.Client = (*Broker)(nil)

// New starts a broker with its dispatcher goroutine.
func New(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		subs:   make(map[string][]transport.Handler),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger.With("component", "transport.memory"),
	}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Publish queues payload for delivery. The payload is copied.
func (b *Broker) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return transport.ErrClosed
	}
	b.queue = append(b.queue, delivery{topic: topic, payload: append([]byte(nil), payload...)})
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// Subscribe adds h to the handlers of topic.
func (b *Broker) Subscribe(_ context.Context, topic string, h transport.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return transport.ErrClosed
	}
	b.subs[topic] = append(b.subs[topic], h)
	return nil
}

// Connected reports whether the broker is open.
func (b *Broker) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed
}

// Close stops the dispatcher and waits for an in-progress delivery to
// return. Queued messages are dropped.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	dropped := len(b.queue)
	b.queue = nil
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()
	if dropped > 0 {
		b.logger.Debug("broker closed with pending messages", "dropped", dropped)
	}
	return nil
}

func (b *Broker) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case <-b.notify:
		}

		for {
			b.mu.Lock()
			if b.closed || len(b.queue) == 0 {
				b.mu.Unlock()
				break
			}
			d := b.queue[0]
			b.queue = b.queue[1:]
			handlers := append([]transport.Handler(nil), b.subs[d.topic]...)
			b.mu.Unlock()

			for _, h := range handlers {
				h(d.topic, d.payload)
			}
		}
	}
}
