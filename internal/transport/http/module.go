// Package http mounts the authenticated /portal route group.
package http

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/session"
	activitytransport "github.com/Additional-Code/portal/internal/transport/http/activity"
	"github.com/Additional-Code/portal/internal/transport/http/auth"
	brandingtransport "github.com/Additional-Code/portal/internal/transport/http/branding"
	invoicetransport "github.com/Additional-Code/portal/internal/transport/http/invoice"
	salesordertransport "github.com/Additional-Code/portal/internal/transport/http/salesorder"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	fx.Provide(NewPortalGroup),
	invoicetransport.Module,
	salesordertransport.Module,
	brandingtransport.Module,
	activitytransport.Module,
)

// NewPortalGroup returns the /portal group; every route in it requires a
// bearer token.
func NewPortalGroup(e *echo.Echo, verifier *session.Verifier) *echo.Group {
	return e.Group("/portal", auth.Middleware(verifier))
}
