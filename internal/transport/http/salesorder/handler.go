// Package salesorder exposes the sales order review view over HTTP.
package salesorder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/dto"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/notify"
	"github.com/Additional-Code/portal/internal/presentation/http/response"
	"github.com/Additional-Code/portal/internal/render/pdf"
	service "github.com/Additional-Code/portal/internal/service/salesorder"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/transport/http/auth"
	"github.com/Additional-Code/portal/internal/view/orderview"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/portal/transport/http/salesorder")

// Service is what the handler needs from the sales order service.
type Service interface {
	List(ctx context.Context, sess session.Session) ([]entity.SalesOrder, error)
	Act(ctx context.Context, sess session.Session, id entity.ID, action entity.OrderAction) (notify.Notification, error)
	Refresh(ctx context.Context, sess session.Session) error
	ExportPDF(ctx context.Context, sess session.Session, id entity.ID) ([]byte, notify.Notification, error)
}

// Module wires HTTP sales order handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service) *Handler { return NewHandler(svc) }),
	fx.Invoke(func(g *echo.Group, h *Handler) {
		Register(g, h)
	}),
)

// Handler exposes sales order endpoints over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a sales order Handler.
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes under the authenticated portal group.
func Register(g *echo.Group, h *Handler) {
	r := g.Group("/sales-orders")
	r.GET("", h.list)
	r.POST("/refresh", h.refresh)
	r.POST("/:id/action", h.act)
	r.GET("/:id/pdf", h.document)
}

func (h *Handler) list(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "salesorders.list")
	defer span.End()

	orders, fetchErr := h.svc.List(ctx, auth.Session(c))
	return response.New(c).WithData(orderview.Render(orders, fetchErr)).Build()
}

func (h *Handler) act(c echo.Context) error {
	b := response.New(c)
	id := entity.ID(c.Param("id"))

	var payload dto.ActionRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}
	action, ok := entity.ParseOrderAction(payload.Action)
	if !ok {
		return b.WithError(errorbank.BadRequest("action must be approve or reject", errorbank.WithDetail("action", payload.Action))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "salesorders.act", trace.WithAttributes(
		attribute.String("salesorder.id", id.String()),
		attribute.String("salesorder.action", string(action)),
	))
	defer span.End()

	n, err := h.svc.Act(ctx, auth.Session(c), id, action)
	if err != nil {
		return b.WithError(err).WithNotification(n).Build()
	}
	return b.WithData(dto.MutationResponse{Notification: n}).WithNotification(n).Build()
}

func (h *Handler) refresh(c echo.Context) error {
	b := response.New(c)
	if err := h.svc.Refresh(c.Request().Context(), auth.Session(c)); err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusNoContent).Build()
}

func (h *Handler) document(c echo.Context) error {
	b := response.New(c)
	id := entity.ID(c.Param("id"))

	out, n, err := h.svc.ExportPDF(c.Request().Context(), auth.Session(c), id)
	if err != nil {
		return b.WithError(err).WithNotification(n).Build()
	}
	return b.Attachment(pdf.ContentType, fmt.Sprintf("sales-order-%s.pdf", id), out)
}
