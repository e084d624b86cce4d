// Package activity stores the journal of mutation attempts made through
// the portal.
package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/database"
	"github.com/Additional-Code/portal/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/portal/repository/activity")

// DefaultLimit bounds List when no limit is given.
const DefaultLimit = 50

// Journal records and lists activity entries.
type Journal interface {
	Record(ctx context.Context, a *entity.Activity) error
	List(ctx context.Context, userID string, limit int) ([]entity.Activity, error)
}

// Module provides the journal.
var Module = fx.Provide(NewJournal)

// NewJournal returns the bun-backed journal, or a no-op one when the journal
// database is disabled.
func NewJournal(conns *database.Connections, logger *zap.Logger) Journal {
	if !conns.Enabled() {
		logger.Info("activity journal disabled; entries are discarded")
		return noopJournal{}
	}
	return NewRepository(conns)
}

type noopJournal struct{}

func (noopJournal) Record(context.Context, *entity.Activity) error { return nil }

func (noopJournal) List(context.Context, string, int) ([]entity.Activity, error) {
	return []entity.Activity{}, nil
}

// Repository encapsulates read/write access for journal entries.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	now    func() time.Time
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		now:    time.Now,
	}
}

// Record inserts a, assigning an id and timestamp when missing.
func (r *Repository) Record(ctx context.Context, a *entity.Activity) error {
	if a == nil {
		return errors.New("nil activity")
	}
	prepare(a, r.now)

	ctx, span := repoTracer.Start(ctx, "ActivityRepository.Record", trace.WithAttributes(
		attribute.String("activity.kind", a.Kind),
		attribute.String("activity.outcome", a.Outcome),
	))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(a).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// List returns the newest entries for userID.
func (r *Repository) List(ctx context.Context, userID string, limit int) ([]entity.Activity, error) {
	limit = clampLimit(limit)
	ctx, span := repoTracer.Start(ctx, "ActivityRepository.List", trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	entries := make([]entity.Activity, 0)
	err := r.reader.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return entries, nil
}

func prepare(a *entity.Activity, now func() time.Time) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now().UTC()
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}
