// Package activity exposes the session's activity journal over HTTP.
package activity

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/dto"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/presentation/http/response"
	service "github.com/Additional-Code/portal/internal/service/activity"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/transport/http/auth"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

// Service lists journal entries.
type Service interface {
	List(ctx context.Context, sess session.Session, limit int) ([]entity.Activity, error)
}

// Module wires the activity handler.
var Module = fx.Invoke(func(g *echo.Group, svc *service.Service) {
	Register(g, svc)
})

// Register mounts GET /activity.
func Register(g *echo.Group, svc Service) {
	g.GET("/activity", func(c echo.Context) error {
		b := response.New(c)

		limit := 0
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return b.WithError(errorbank.BadRequest("limit must be a positive integer", errorbank.WithDetail("limit", raw))).Build()
			}
			limit = n
		}

		entries, err := svc.List(c.Request().Context(), auth.Session(c), limit)
		if err != nil {
			return b.WithError(err).Build()
		}
		return b.WithData(dto.ActivityList{Entries: entries}).WithMeta("count", len(entries)).Build()
	})
}
