// Package branding serves the organisation metadata used on documents.
package branding

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/backend"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/query"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/portal/service/branding")

// Module provides the branding service to Fx.
var Module = fx.Provide(NewService)

// Service reads branding through the query cache.
type Service struct {
	backend backend.Client
	cache   *query.Cache
	logger  *zap.Logger
}

// NewService wires a new Service instance.
func NewService(client backend.Client, cache *query.Cache, logger *zap.Logger) *Service {
	return &Service{backend: client, cache: cache, logger: logger}
}

// Get returns the organisation branding.
func (s *Service) Get(ctx context.Context, sess session.Session) (entity.Branding, error) {
	ctx, span := serviceTracer.Start(ctx, "BrandingService.Get")
	defer span.End()

	b, err := query.Fetch(ctx, s.cache, query.Branding, sess.Scope(), func(ctx context.Context) (entity.Branding, error) {
		return s.backend.GetBranding(ctx, sess.Token)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "branding fetch failed")
		return entity.Branding{}, errorbank.Upstream("branding unavailable", errorbank.WithCause(err))
	}
	return b, nil
}

// Letterhead returns branding for documents, falling back to no letterhead
// when the backend cannot supply it.
func (s *Service) Letterhead(ctx context.Context, sess session.Session) entity.Branding {
	b, err := s.Get(ctx, sess)
	if err != nil {
		s.logger.Warn("branding unavailable; rendering without letterhead", zap.Error(err))
		return entity.Branding{}
	}
	return b
}
