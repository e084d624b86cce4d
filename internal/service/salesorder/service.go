// Package salesorder implements the sales order review view's reads and
// the approve/reject mutation.
package salesorder

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/backend"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/event"
	"github.com/Additional-Code/portal/internal/notify"
	"github.com/Additional-Code/portal/internal/query"
	"github.com/Additional-Code/portal/internal/render/pdf"
	"github.com/Additional-Code/portal/internal/repository/activity"
	"github.com/Additional-Code/portal/internal/service/branding"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/view/orderview"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/portal/service/salesorder")

// Notifications for document export.
var (
	PDFDownloaded = notify.Success("PDF downloaded", "")
	PDFFailed     = notify.Failure("Failed to generate PDF", "")
)

// Service encapsulates the sales order reads and the approve/reject mutation.
type Service struct {
	backend     backend.Client
	cache       *query.Cache
	invalidator query.Invalidator
	branding    *branding.Service
	journal     activity.Journal
	events      *event.Publisher
	logger      *zap.Logger
	decisions   metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Backend     backend.Client
	Cache       *query.Cache
	Invalidator query.Invalidator
	Branding    *branding.Service
	Journal     activity.Journal
	Events      *event.Publisher
	Logger      *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	decisions, _ := otel.Meter("github.com/Additional-Code/portal/service/salesorder").
		Int64Counter("portal.salesorder.decisions")
	return &Service{
		backend:     p.Backend,
		cache:       p.Cache,
		invalidator: p.Invalidator,
		branding:    p.Branding,
		journal:     p.Journal,
		events:      p.Events,
		logger:      p.Logger,
		decisions:   decisions,
	}
}

// List returns the session's sales orders in backend order.
func (s *Service) List(ctx context.Context, sess session.Session) ([]entity.SalesOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "SalesOrderService.List")
	defer span.End()

	orders, err := query.Fetch(ctx, s.cache, query.SalesOrders, sess.Scope(), func(ctx context.Context) ([]entity.SalesOrder, error) {
		return s.backend.ListSalesOrders(ctx, sess.Token)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sales order fetch failed")
		s.logger.Warn("sales orders unavailable", zap.String("user", sess.UserID), zap.Error(err))
		return []entity.SalesOrder{}, errorbank.Upstream("sales orders unavailable", errorbank.WithCause(err))
	}
	return orders, nil
}

// Get returns one sales order.
func (s *Service) Get(ctx context.Context, sess session.Session, id entity.ID) (entity.SalesOrder, error) {
	orders, err := s.List(ctx, sess)
	if err != nil {
		return entity.SalesOrder{}, err
	}
	order, ok := orderview.Find(orders, id)
	if !ok {
		return entity.SalesOrder{}, errorbank.NotFound("sales order not found", errorbank.WithDetail("id", id.String()))
	}
	return order, nil
}

// Succeeded is the notification for a successful decision.
func Succeeded(action entity.OrderAction) notify.Notification {
	return notify.Success("Success", fmt.Sprintf("Sales order %s successfully", action.PastTense()))
}

// Failed is the notification for a rejected decision, preferring the
// backend's own message.
func Failed(action entity.OrderAction, serverMessage string) notify.Notification {
	if serverMessage == "" {
		serverMessage = fmt.Sprintf("Failed to %s sales order", action)
	}
	return notify.Failure("Error", serverMessage)
}

// Act approves or rejects the order. The backend decides whether the order
// can still be acted on; on failure nothing is invalidated.
func (s *Service) Act(ctx context.Context, sess session.Session, id entity.ID, action entity.OrderAction) (notify.Notification, error) {
	parsed, ok := entity.ParseOrderAction(string(action))
	if !ok {
		return notify.Notification{}, errorbank.BadRequest("action must be approve or reject", errorbank.WithDetail("action", string(action)))
	}
	action = parsed

	ctx, span := serviceTracer.Start(ctx, "SalesOrderService.Act", trace.WithAttributes(
		attribute.String("salesorder.id", id.String()),
		attribute.String("salesorder.action", string(action)),
	))
	defer span.End()

	entry := &entity.Activity{
		UserID:     sess.UserID,
		Kind:       activityKind(action),
		ResourceID: id.String(),
	}

	if err := s.backend.ActOnSalesOrder(ctx, sess.Token, id, action); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sales order action failed")
		s.logger.Error("sales order action failed",
			zap.String("order", id.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		s.decisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", string(action)),
			attribute.String("outcome", entity.OutcomeFailed),
		))

		n := Failed(action, backend.ServerMessage(err))
		entry.Outcome = entity.OutcomeFailed
		entry.Message = n.Description
		s.record(ctx, entry)
		return n, errorbank.Upstream(n.Description, errorbank.WithCause(err))
	}

	s.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("outcome", entity.OutcomeSucceeded),
	))
	if err := s.invalidator.Invalidate(ctx, query.SalesOrders, sess.Scope()); err != nil {
		s.logger.Warn("sales order cache invalidation failed", zap.String("user", sess.UserID), zap.Error(err))
	}

	n := Succeeded(action)
	entry.Outcome = entity.OutcomeSucceeded
	entry.Message = n.Description
	s.record(ctx, entry)
	s.events.Publish(ctx, event.Event{
		Type:       event.TypeSalesOrderActioned,
		Scope:      sess.Scope(),
		ResourceID: id.String(),
		Action:     string(action),
	})
	return n, nil
}

// Refresh drops the cached sales order collection for the session.
func (s *Service) Refresh(ctx context.Context, sess session.Session) error {
	if err := s.invalidator.Invalidate(ctx, query.SalesOrders, sess.Scope()); err != nil {
		return errorbank.Internal("failed to refresh sales orders", errorbank.WithCause(err))
	}
	s.events.Publish(ctx, event.Event{
		Type:     event.TypeResourceInvalidated,
		Scope:    sess.Scope(),
		Resource: string(query.SalesOrders),
	})
	return nil
}

// ExportPDF renders the order with the organisation letterhead. The
// notification reports the outcome either way.
func (s *Service) ExportPDF(ctx context.Context, sess session.Session, id entity.ID) ([]byte, notify.Notification, error) {
	ctx, span := serviceTracer.Start(ctx, "SalesOrderService.ExportPDF", trace.WithAttributes(
		attribute.String("salesorder.id", id.String()),
	))
	defer span.End()

	order, err := s.Get(ctx, sess, id)
	if err != nil {
		span.RecordError(err)
		return nil, PDFFailed, err
	}
	out, err := pdf.SalesOrder(order, s.branding.Letterhead(ctx, sess))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		s.logger.Error("sales order pdf failed", zap.String("order", id.String()), zap.Error(err))
		return nil, PDFFailed, errorbank.Internal(PDFFailed.Title, errorbank.WithCause(err))
	}
	return out, PDFDownloaded, nil
}

func activityKind(action entity.OrderAction) string {
	if action == entity.ActionReject {
		return entity.ActivityOrderRejection
	}
	return entity.ActivityOrderApproval
}

func (s *Service) record(ctx context.Context, entry *entity.Activity) {
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("activity journal write failed", zap.String("kind", entry.Kind), zap.Error(err))
	}
}
