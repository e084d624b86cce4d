// Package invoice implements the customer invoice view's reads and the
// payment mutation.
package invoice

import (
	"context"

	"github.com/shopspring/decimal"
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
	"github.com/Additional-Code/portal/internal/render/xlsx"
	"github.com/Additional-Code/portal/internal/repository/activity"
	"github.com/Additional-Code/portal/internal/service/branding"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/view/invoiceview"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/portal/service/invoice")

// Notifications shown after a payment attempt.
var (
	PaymentSucceeded = notify.Success("Payment Successful", "Your payment has been processed.")
	PaymentFailed    = notify.Failure("Payment Failed", "Please try again.")
)

// Service encapsulates the invoice reads and the pay mutation.
type Service struct {
	backend     backend.Client
	cache       *query.Cache
	invalidator query.Invalidator
	branding    *branding.Service
	journal     activity.Journal
	events      *event.Publisher
	logger      *zap.Logger
	payments    metric.Int64Counter
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
	payments, _ := otel.Meter("github.com/Additional-Code/portal/service/invoice").
		Int64Counter("portal.invoice.payments")
	return &Service{
		backend:     p.Backend,
		cache:       p.Cache,
		invalidator: p.Invalidator,
		branding:    p.Branding,
		journal:     p.Journal,
		events:      p.Events,
		logger:      p.Logger,
		payments:    payments,
	}
}

// List returns every invoice visible to the session, Drafts included; the
// view layer decides what to show.
func (s *Service) List(ctx context.Context, sess session.Session) ([]entity.Invoice, error) {
	ctx, span := serviceTracer.Start(ctx, "InvoiceService.List")
	defer span.End()

	invoices, err := query.Fetch(ctx, s.cache, query.Invoices, sess.Scope(), func(ctx context.Context) ([]entity.Invoice, error) {
		return s.backend.ListInvoices(ctx, sess.Token)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invoice fetch failed")
		s.logger.Warn("invoices unavailable", zap.String("user", sess.UserID), zap.Error(err))
		return []entity.Invoice{}, errorbank.Upstream("invoices unavailable", errorbank.WithCause(err))
	}
	return invoices, nil
}

// Get returns one visible invoice.
func (s *Service) Get(ctx context.Context, sess session.Session, id entity.ID) (entity.Invoice, error) {
	invoices, err := s.List(ctx, sess)
	if err != nil {
		return entity.Invoice{}, err
	}
	inv, ok := invoiceview.Find(invoices, id)
	if !ok {
		return entity.Invoice{}, errorbank.NotFound("invoice not found", errorbank.WithDetail("id", id.String()))
	}
	return inv, nil
}

// Pay submits one payment of amount against the invoice. Zero is forwarded
// as is; the backend owns validation. On success the invoice collection is
// invalidated so the next read reflects the new balance.
func (s *Service) Pay(ctx context.Context, sess session.Session, id entity.ID, amount decimal.Decimal) (notify.Notification, error) {
	ctx, span := serviceTracer.Start(ctx, "InvoiceService.Pay", trace.WithAttributes(
		attribute.String("invoice.id", id.String()),
		attribute.String("payment.amount", amount.String()),
	))
	defer span.End()

	entry := &entity.Activity{
		UserID:     sess.UserID,
		Kind:       entity.ActivityInvoicePayment,
		ResourceID: id.String(),
		Amount:     decimal.NewNullDecimal(amount),
	}

	if err := s.backend.PayInvoice(ctx, sess.Token, id, amount); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment failed")
		s.logger.Error("invoice payment failed", zap.String("invoice", id.String()), zap.Error(err))
		s.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", entity.OutcomeFailed)))

		entry.Outcome = entity.OutcomeFailed
		entry.Message = err.Error()
		s.record(ctx, entry)
		return PaymentFailed, errorbank.Upstream(PaymentFailed.Title, errorbank.WithCause(err))
	}

	s.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", entity.OutcomeSucceeded)))
	s.invalidate(ctx, sess)

	entry.Outcome = entity.OutcomeSucceeded
	s.record(ctx, entry)
	s.events.Publish(ctx, event.Event{
		Type:       event.TypeInvoicePaid,
		Scope:      sess.Scope(),
		ResourceID: id.String(),
		Amount:     amount.String(),
	})
	return PaymentSucceeded, nil
}

// Refresh drops the cached invoice collection for the session.
func (s *Service) Refresh(ctx context.Context, sess session.Session) error {
	if err := s.invalidator.Invalidate(ctx, query.Invoices, sess.Scope()); err != nil {
		return errorbank.Internal("failed to refresh invoices", errorbank.WithCause(err))
	}
	s.events.Publish(ctx, event.Event{
		Type:     event.TypeResourceInvalidated,
		Scope:    sess.Scope(),
		Resource: string(query.Invoices),
	})
	return nil
}

// Export renders the invoices shown for tab and search as a workbook.
func (s *Service) Export(ctx context.Context, sess session.Session, tab invoiceview.Tab, search string) ([]byte, error) {
	invoices, err := s.List(ctx, sess)
	if err != nil {
		return nil, err
	}
	out, err := xlsx.Invoices(invoiceview.Filter(invoices, search, tab))
	if err != nil {
		return nil, errorbank.Internal("failed to export invoices", errorbank.WithCause(err))
	}
	return out, nil
}

// Document renders one invoice with the organisation letterhead.
func (s *Service) Document(ctx context.Context, sess session.Session, id entity.ID) ([]byte, error) {
	inv, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	out, err := pdf.Invoice(inv, s.branding.Letterhead(ctx, sess))
	if err != nil {
		return nil, errorbank.Internal("failed to render invoice", errorbank.WithCause(err))
	}
	return out, nil
}

// Payer binds the service to sess for the invoice page's payment dialog.
func (s *Service) Payer(sess session.Session) invoiceview.Payer {
	return sessionPayer{svc: s, sess: sess}
}

type sessionPayer struct {
	svc  *Service
	sess session.Session
}

func (p sessionPayer) Pay(ctx context.Context, id entity.ID, amount decimal.Decimal) (notify.Notification, error) {
	return p.svc.Pay(ctx, p.sess, id, amount)
}

func (s *Service) invalidate(ctx context.Context, sess session.Session) {
	if err := s.invalidator.Invalidate(ctx, query.Invoices, sess.Scope()); err != nil {
		s.logger.Warn("invoice cache invalidation failed", zap.String("user", sess.UserID), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, entry *entity.Activity) {
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("activity journal write failed", zap.String("kind", entry.Kind), zap.Error(err))
	}
}
