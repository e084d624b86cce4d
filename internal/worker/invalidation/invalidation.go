// Package invalidation drops cached collections when any portal instance
// reports a successful mutation or refresh.
package invalidation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/event"
	"github.com/Additional-Code/portal/internal/messaging"
	"github.com/Additional-Code/portal/internal/query"
	"github.com/Additional-Code/portal/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/portal/worker/invalidation")

// Module registers the invalidation handlers.
var Module = fx.Module("worker_invalidation",
	fx.Provide(
		fx.Annotate(
			NewHandlers,
			fx.ResultTags(`group:"worker.handlers,flatten"`),
		),
	),
)

// NewHandlers registers one handler per portal event type.
func NewHandlers(invalidator query.Invalidator, logger *zap.Logger) []worker.HandlerRegistration {
	handle := Handler(invalidator, logger)
	types := []string{event.TypeInvoicePaid, event.TypeSalesOrderActioned, event.TypeResourceInvalidated}

	regs := make([]worker.HandlerRegistration, 0, len(types))
	for _, t := range types {
		regs = append(regs, worker.HandlerRegistration{EventType: t, Handler: handle})
	}
	return regs
}

// Handler decodes an event and invalidates the resource it made stale.
// Undecodable or unknown events are logged and acknowledged.
func Handler(invalidator query.Invalidator, logger *zap.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.invalidation.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("event.type", msg.EventType()),
		))
		defer span.End()

		e, err := event.Decode(msg)
		if err != nil {
			logger.Error("failed to decode portal event", zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}

		resource, err := e.Stale()
		if err != nil {
			logger.Warn("ignoring portal event", zap.String("type", e.Type), zap.Error(err))
			return nil
		}
		if e.Scope == "" {
			logger.Warn("portal event without scope", zap.String("type", e.Type), zap.String("id", e.ID))
			return nil
		}

		if err := invalidator.Invalidate(ctx, resource, e.Scope); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalidate failed")
			return err
		}
		logger.Debug("portal event applied",
			zap.String("type", e.Type),
			zap.String("resource", string(resource)),
			zap.String("scope", e.Scope),
		)
		return nil
	}
}
