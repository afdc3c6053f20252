// Package events publishes storefront notifications, currently order creation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
)

// OrderCreated is published after the backend accepts an order.
type OrderCreated struct {
	OrderID        string              `json:"orderId"`
	BusinessID     string              `json:"businessId,omitempty"`
	PaymentMethod  string              `json:"paymentMethod"`
	DeliveryArea   domain.DeliveryZone `json:"deliveryArea"`
	IsPreOrder     bool                `json:"isPreOrder"`
	Items          []domain.OrderItem  `json:"items"`
	DeliveryCharge decimal.Decimal     `json:"deliveryCharge"`
	Due            decimal.Decimal     `json:"due"`
	Currency       string              `json:"currency,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Publisher sends storefront events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, evt OrderCreated) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderCreated(context.Context, OrderCreated) error { return nil }
func (NoopPublisher) Close() error { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON events on a NATS subject.
type NATSPublisher struct {
	nc      conn
	subject string
	logger  *slog.Logger
}

// NATSConfig contains configuration for the NATS publisher.
type NATSConfig struct {
	URL     string
	Subject string
	Logger  *slog.Logger // Optional: defaults to slog.Default()
}

// Connect dials NATS and returns a publisher. The connection reconnects on
// its own; disconnects are logged.
func Connect(cfg NATSConfig) (*NATSPublisher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("dokan-storefront"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return newNATSPublisher(nc, cfg.Subject, logger), nil
}

func newNATSPublisher(nc conn, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject, logger: logger}
}

func (p *NATSPublisher) PublishOrderCreated(ctx context.Context, evt OrderCreated) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.Debug("order event published", "subject", p.subject, "order_id", evt.OrderID)
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
