// Package activity lists the session's journaled mutation attempts.
package activity

import (
	"context"

	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/entity"
	repo "github.com/Additional-Code/portal/internal/repository/activity"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

// Module provides the activity service to Fx.
var Module = fx.Provide(NewService)

// Service reads the activity journal.
type Service struct {
	journal repo.Journal
}

// NewService wires a new Service instance.
func NewService(journal repo.Journal) *Service {
	return &Service{journal: journal}
}

// List returns the newest entries recorded for the session's user.
func (s *Service) List(ctx context.Context, sess session.Session, limit int) ([]entity.Activity, error) {
	entries, err := s.journal.List(ctx, sess.UserID, limit)
	if err != nil {
		return nil, errorbank.Internal("failed to load activity", errorbank.WithCause(err))
	}
	return entries, nil
}
