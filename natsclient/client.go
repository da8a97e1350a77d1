// Package natsclient manages the node's NATS connection and exposes a
// JetStream key-value wrapper used by the durable log.
package natsclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/santicomp2014/lumino/errors"
)

// Client wraps a NATS connection with JetStream enabled.
type Client struct {
	url    string
	logger *slog.Logger

	conn *nats.Conn
	js   jetstream.JetStream

	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
	clientName    string
}

// New creates a client for the given URL. The connection is established by
// Connect.
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "natsclient", "New", "empty URL")
	}
	c := &Client{
		url:           url,
		logger:        slog.Default(),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
		clientName:    "lumino",
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Connect establishes the NATS connection and initializes JetStream.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := nats.Connect(c.url,
		nats.Name(c.clientName),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.Timeout(c.timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return errors.WrapTransient(err, "natsclient", "Connect", "connect to "+c.url)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return errors.WrapFatal(err, "natsclient", "Connect", "initialize JetStream")
	}

	c.conn = conn
	c.js = js
	c.logger.Info("nats connected", "url", conn.ConnectedUrl())
	return nil
}

// KeyValue opens the named KV bucket, creating it when missing, and wraps
// it in a KVStore.
func (c *Client) KeyValue(ctx context.Context, bucket string) (*KVStore, error) {
	if c.js == nil {
		return nil, errors.WrapInvalid(errors.ErrNoConnection, "natsclient", "KeyValue", "open bucket "+bucket)
	}
	kv, err := c.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucket,
		History: 1,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "natsclient", "KeyValue", "open bucket "+bucket)
	}
	return newKVStore(kv, c.timeout, c.logger), nil
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
	c.conn = nil
	c.js = nil
}

// Option is a functional option for configuring the Client.
type Option func(*Client) error

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "natsclient", "WithLogger", "nil logger")
		}
		c.logger = logger
		return nil
	}
}

// WithMaxReconnects sets the maximum number of reconnection attempts
// (-1 for infinite).
func WithMaxReconnects(max int) Option {
	return func(c *Client) error {
		c.maxReconnects = max
		return nil
	}
}

// WithReconnectWait sets the wait time between reconnection attempts.
func WithReconnectWait(d time.Duration) Option {
	return func(c *Client) error {
		c.reconnectWait = d
		return nil
	}
}

// WithTimeout sets the connection and per-operation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithClientName sets the connection name reported to the server.
func WithClientName(name string) Option {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}
