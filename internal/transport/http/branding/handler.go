// Package branding exposes organisation branding over HTTP.
package branding

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/presentation/http/response"
	service "github.com/Additional-Code/portal/internal/service/branding"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/transport/http/auth"
)

// Service reads branding.
type Service interface {
	Get(ctx context.Context, sess session.Session) (entity.Branding, error)
}

// Module wires the branding handler.
var Module = fx.Invoke(func(g *echo.Group, svc *service.Service) {
	Register(g, svc)
})

// Register mounts GET /branding.
func Register(g *echo.Group, svc Service) {
	g.GET("/branding", func(c echo.Context) error {
		b := response.New(c)
		brand, err := svc.Get(c.Request().Context(), auth.Session(c))
		if err != nil {
			return b.WithError(err).Build()
		}
		return b.WithData(brand).Build()
	})
}
