package messagebroker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsClient wraps a core NATS connection with logging-aware lifecycle
// handlers. Publishing and queue subscriptions are all this service needs;
// JetStream is deliberately not enabled here.
type NatsClient struct {
	Conn   *nats.Conn
	logger *slog.Logger
}

// NewNatsClient connects to NATS. natsURL example: "nats://localhost:4222".
func NewNatsClient(natsURL, appName string, logger *slog.Logger) (*NatsClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed", "error", nc.LastError())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}

	return &NatsClient{Conn: nc, logger: logger}, nil
}

// Publish sends data to the given subject.
func (c *NatsClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.Conn.Publish(subject, data); err != nil {
		c.logger.ErrorContext(ctx, "Failed to publish NATS message", "subject", subject, "error", err)
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe creates a queue subscription so a message is handled by exactly
// one instance of the service. The subscription is valid until Close or
// Unsubscribe.
func (c *NatsClient) Subscribe(subject, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.Conn.QueueSubscribe(subject, queueGroup, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.logger.Info("Subscribed to NATS subject", "subject", subject, "queue_group", queueGroup)
	return sub, nil
}

// Close drains the connection so in-flight published messages are flushed.
func (c *NatsClient) Close() {
	if c.Conn != nil && !c.Conn.IsClosed() {
		if err := c.Conn.Drain(); err != nil {
			c.logger.Warn("Error draining NATS connection", "error", err)
		}
	}
}
