// Package event defines the portal's mutation events and publishes them
// over the message bus.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/messaging"
	"github.com/Additional-Code/portal/internal/query"
)

// Event types.
const (
	TypeInvoicePaid         = "portal.invoice.paid"
	TypeSalesOrderActioned  = "portal.salesorder.actioned"
	TypeResourceInvalidated = "portal.resource.invalidated"
)

// ErrUnknownType is returned when decoding an event of an unknown type.
var ErrUnknownType = errors.New("unknown event type")

// Event is a successful mutation (or manual refresh) made through the portal.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Scope      string    `json:"scope"`
	ResourceID string    `json:"resourceId,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	Action     string    `json:"action,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Stale returns the cached resource the event makes stale.
func (e Event) Stale() (query.Resource, error) {
	switch e.Type {
	case TypeInvoicePaid:
		return query.Invoices, nil
	case TypeSalesOrderActioned:
		return query.SalesOrders, nil
	case TypeResourceInvalidated:
		switch r := query.Resource(e.Resource); r {
		case query.Invoices, query.SalesOrders, query.Branding:
			return r, nil
		}
		return "", fmt.Errorf("%w: resource %q", ErrUnknownType, e.Resource)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, e.Type)
	}
}

// Decode reads an event from a bus message.
func Decode(msg messaging.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Type == "" {
		e.Type = msg.EventType()
	}
	return e, nil
}

// Publisher emits portal events. Publish failures are logged and swallowed;
// the mutation that produced the event has already succeeded.
type Publisher struct {
	client messaging.Client
	logger *zap.Logger
	now    func() time.Time
}

// Module provides the event publisher.
var Module = fx.Provide(NewPublisher)

// NewPublisher wires a Publisher over the messaging client.
func NewPublisher(client messaging.Client, cfg config.Config, logger *zap.Logger) *Publisher {
	if !cfg.Messaging.Enabled {
		client = nil
	}
	return newPublisher(client, logger)
}

func newPublisher(client messaging.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger, now: time.Now}
}

// Publish stamps and sends e.
func (p *Publisher) Publish(ctx context.Context, e Event) {
	if p == nil || p.client == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("marshal portal event", zap.String("type", e.Type), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(e.Scope),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: e.Type},
	}
	if err := p.client.Publish(ctx, msg); err != nil {
		p.logger.Error("publish portal event", zap.String("type", e.Type), zap.String("id", e.ID), zap.Error(err))
	}
}
