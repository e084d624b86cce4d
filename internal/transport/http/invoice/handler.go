// Package invoice exposes the customer invoice view over HTTP.
package invoice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/dto"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/notify"
	"github.com/Additional-Code/portal/internal/presentation/http/response"
	"github.com/Additional-Code/portal/internal/render/pdf"
	"github.com/Additional-Code/portal/internal/render/xlsx"
	brandingsvc "github.com/Additional-Code/portal/internal/service/branding"
	service "github.com/Additional-Code/portal/internal/service/invoice"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/transport/http/auth"
	"github.com/Additional-Code/portal/internal/view/invoiceview"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/portal/transport/http/invoice")

// Service is what the handler needs from the invoice service.
type Service interface {
	List(ctx context.Context, sess session.Session) ([]entity.Invoice, error)
	Get(ctx context.Context, sess session.Session, id entity.ID) (entity.Invoice, error)
	Pay(ctx context.Context, sess session.Session, id entity.ID, amount decimal.Decimal) (notify.Notification, error)
	Refresh(ctx context.Context, sess session.Session) error
	Export(ctx context.Context, sess session.Session, tab invoiceview.Tab, search string) ([]byte, error)
	Document(ctx context.Context, sess session.Session, id entity.ID) ([]byte, error)
}

// Letterheads supplies branding for the detail panel.
type Letterheads interface {
	Letterhead(ctx context.Context, sess session.Session) entity.Branding
}

// Module wires HTTP invoice handlers.
var Module = fx.Options(
	fx.Provide(func(svc *service.Service, b *brandingsvc.Service) *Handler { return NewHandler(svc, b) }),
	fx.Invoke(func(g *echo.Group, h *Handler) {
		Register(g, h)
	}),
)

// Handler exposes invoice endpoints over HTTP.
type Handler struct {
	svc         Service
	letterheads Letterheads
}

// NewHandler constructs an invoice Handler.
func NewHandler(svc Service, letterheads Letterheads) *Handler {
	return &Handler{svc: svc, letterheads: letterheads}
}

// Register routes under the authenticated portal group.
func Register(g *echo.Group, h *Handler) {
	r := g.Group("/invoices")
	r.GET("", h.list)
	r.GET("/export", h.export)
	r.POST("/refresh", h.refresh)
	r.GET("/:id", h.detail)
	r.GET("/:id/pdf", h.document)
	r.POST("/:id/pay", h.pay)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	page, err := pageFromQuery(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.list", trace.WithAttributes(
		attribute.String("invoices.tab", string(page.Tab)),
	))
	defer span.End()

	invoices, fetchErr := h.svc.List(ctx, auth.Session(c))
	return b.WithData(page.Render(invoices, fetchErr)).Build()
}

func (h *Handler) detail(c echo.Context) error {
	b := response.New(c)
	sess := auth.Session(c)
	ctx := c.Request().Context()

	inv, err := h.svc.Get(ctx, sess, entity.ID(c.Param("id")))
	if err != nil {
		return b.WithError(err).Build()
	}

	row := invoiceview.NewRow(inv, inv.ID)
	return b.WithData(dto.InvoiceDetail{
		Invoice:       row,
		Branding:      h.letterheads.Letterhead(ctx, sess),
		CanPay:        row.CanPay,
		DefaultAmount: inv.Outstanding().String(),
	}).Build()
}

func (h *Handler) pay(c echo.Context) error {
	b := response.New(c)
	id := entity.ID(c.Param("id"))

	var payload dto.PayRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "invoices.pay", trace.WithAttributes(
		attribute.String("invoice.id", id.String()),
	))
	defer span.End()

	n, err := h.svc.Pay(ctx, auth.Session(c), id, *payload.Amount)
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

func (h *Handler) export(c echo.Context) error {
	b := response.New(c)

	page, err := pageFromQuery(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	out, err := h.svc.Export(c.Request().Context(), auth.Session(c), page.Tab, page.Search)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Attachment(xlsx.ContentType, fmt.Sprintf("invoices-%s.xlsx", page.Tab), out)
}

func (h *Handler) document(c echo.Context) error {
	b := response.New(c)
	id := entity.ID(c.Param("id"))

	out, err := h.svc.Document(c.Request().Context(), auth.Session(c), id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.Attachment(pdf.ContentType, fmt.Sprintf("invoice-%s.pdf", id), out)
}

// pageFromQuery reads tab, search and selected. An unknown tab is rejected.
func pageFromQuery(c echo.Context) (*invoiceview.Page, error) {
	page := invoiceview.NewPage()
	if raw := strings.TrimSpace(c.QueryParam("tab")); raw != "" {
		tab, ok := invoiceview.ParseTab(raw)
		if !ok {
			return nil, errorbank.BadRequest("tab must be all, unpaid or paid", errorbank.WithDetail("tab", raw))
		}
		page.Tab = tab
	}
	page.Search = c.QueryParam("search")
	if selected := c.QueryParam("selected"); selected != "" {
		page.Select(entity.ID(selected))
	}
	return page, nil
}
