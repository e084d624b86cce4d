// Package worker consumes portal events in the background.
package worker

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/messaging"
)

const maxBackoff = 30 * time.Second

// HandlerRegistration binds an event type to a handler.
type HandlerRegistration struct {
	EventType string
	Handler   messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs a fixed pool of consumers over the portal topic and routes
// each message by its event-type header.
type Engine struct {
	client    messaging.Client
	logger    *zap.Logger
	workers   config.Worker
	enabled   bool
	handlers  map[string]messaging.Handler
	processed metric.Int64Counter

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewEngine constructs the worker Engine. Registrations without a type or
// handler are dropped; a later registration for the same type wins.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.EventType == "" || r.Handler == nil {
			continue
		}
		handlers[r.EventType] = r.Handler
	}

	processed, _ := otel.Meter("github.com/Additional-Code/portal/worker").Int64Counter(
		"portal.worker.events",
		metric.WithDescription("Portal events consumed by the worker engine"),
	)

	return &Engine{
		client:    p.Client,
		logger:    p.Logger,
		workers:   p.Config.Messaging.Workers,
		enabled:   p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		handlers:  handlers,
		processed: processed,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.enabled {
		e.logger.Info("worker engine disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	concurrency := max(e.workers.Concurrency, 1)
	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.group, runCtx = errgroup.WithContext(runCtx)

	for i := range concurrency {
		e.group.Go(func() error {
			e.consumeLoop(runCtx, i)
			return nil
		})
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.String("topic", e.client.Topic()))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		_ = e.group.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// consumeLoop restarts the consumer after transient failures, doubling the
// wait from the poll interval up to maxBackoff.
func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	initial := e.workers.PollInterval
	if initial <= 0 {
		initial = time.Second
	}
	backoff := initial

	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			backoff = initial
			return e.dispatch(msgCtx, msg, workerID)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Int("worker", workerID), zap.Duration("retry_in", backoff), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// dispatch routes msg to the handler registered for its event type. Unknown
// types are acknowledged so they do not block the partition.
func (e *Engine) dispatch(ctx context.Context, msg messaging.Message, workerID int) error {
	eventType := msg.EventType()
	handler, ok := e.handlers[eventType]
	if !ok {
		e.logger.Warn("no handler for event", zap.String("event_type", eventType), zap.String("topic", msg.Topic))
		e.record(ctx, eventType, "skipped")
		return nil
	}

	e.logger.Debug("processing event", zap.String("event_type", eventType), zap.Int("worker", workerID))
	if err := handler(ctx, msg); err != nil {
		e.record(ctx, eventType, "failed")
		return err
	}
	e.record(ctx, eventType, "handled")
	return nil
}

func (e *Engine) record(ctx context.Context, eventType, outcome string) {
	if e.processed == nil {
		return
	}
	e.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.String("outcome", outcome),
	))
}
