package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/yndnr/gatecam/internal/transport"
)

// Options configures a Client.
type Options struct {
	// URL of the broker, e.g. "ssl://broker.local:8883" or "tcp://localhost:1883".
	URL      string
	ClientID string
	Username string
	Password string

	// QoS for publishes and subscriptions. Values below 1 are raised to 1.
	QoS byte

	ConnectTimeout       time.Duration
	KeepAlive            time.Duration
	MaxReconnectInterval time.Duration

	// TLS enables TLS when non-nil.
	TLS *tls.Config
}

func (o Options) withDefaults() Options {
	if o.QoS < 1 {
		o.QoS = 1
	}
	if o.QoS > 2 {
		o.QoS = 2
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = 30 * time.Second
	}
	if o.MaxReconnectInterval <= 0 {
		o.MaxReconnectInterval = time.Minute
	}
	return o
}

// Client is a transport.Client backed by paho.
type Client struct {
	cli    paho.Client
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]transport.Handler
}

var _ transport.Client = (*Client)(nil)

// Dial connects to the broker. The first connection must succeed within
// opts.ConnectTimeout; later losses are recovered automatically.
func Dial(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("mqtt: broker url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		opts:   opts.withDefaults(),
		logger: logger.With("component", "transport.mqtt", "broker", opts.URL),
		subs:   make(map[string]transport.Handler),
	}
	c.cli = paho.NewClient(c.clientOptions())

	if err := wait(ctx, c.cli.Connect(), c.opts.ConnectTimeout); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", opts.URL, err)
	}
	return c, nil
}

func (c *Client) clientOptions() *paho.ClientOptions {
	po := paho.NewClientOptions().
		AddBroker(c.opts.URL).
		SetClientID(c.opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectTimeout(c.opts.ConnectTimeout).
		SetKeepAlive(c.opts.KeepAlive).
		SetMaxReconnectInterval(c.opts.MaxReconnectInterval).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.logger.Warn("broker connection lost", "error", err)
		}).
		SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
			c.logger.Info("reconnecting to broker")
		})

	if c.opts.Username != "" {
		po.SetUsername(c.opts.Username)
		po.SetPassword(c.opts.Password)
	}
	if c.opts.TLS != nil {
		po.SetTLSConfig(c.opts.TLS)
	}
	return po
}

// onConnect runs on its own goroutine after every successful connect and
// re-issues all subscriptions, since the session is clean.
func (c *Client) onConnect(cli paho.Client) {
	c.mu.Lock()
	subs := make(map[string]transport.Handler, len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	c.mu.Unlock()

	c.logger.Info("connected to broker", "subscriptions", len(subs))
	for topic, h := range subs {
		tok := cli.Subscribe(topic, c.opts.QoS, wrap(h))
		if err := wait(context.Background(), tok, c.opts.ConnectTimeout); err != nil {
			c.logger.Error("re-subscribe failed", "topic", topic, "error", err)
		}
	}
}

// Publish sends payload and waits for the broker acknowledgement.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	tok := c.cli.Publish(topic, c.opts.QoS, false, payload)
	if err := wait(ctx, tok, c.opts.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe records h and subscribes now when connected. A subscription
// that fails while disconnected is retried by the next OnConnect.
func (c *Client) Subscribe(ctx context.Context, topic string, h transport.Handler) error {
	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()

	if !c.cli.IsConnectionOpen() {
		return nil
	}
	tok := c.cli.Subscribe(topic, c.opts.QoS, wrap(h))
	if err := wait(ctx, tok, c.opts.ConnectTimeout); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, err)
	}
	return nil
}

// Connected reports whether the broker connection is currently up.
func (c *Client) Connected() bool {
	return c.cli.IsConnectionOpen()
}

// Close disconnects, allowing 250ms for in-flight work.
func (c *Client) Close() error {
	c.cli.Disconnect(250)
	return nil
}

func wrap(h transport.Handler) paho.MessageHandler {
	return func(_ paho.Client, m paho.Message) {
		h(m.Topic(), m.Payload())
	}
}

var errTimeout = errors.New("timed out waiting for broker")

// wait blocks until tok completes, ctx is done or timeout elapses.
func wait(ctx context.Context, tok paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errTimeout
	}
}
