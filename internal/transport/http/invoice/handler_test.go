package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/backend"
	"github.com/Additional-Code/portal/internal/backend/backendtest"
	"github.com/Additional-Code/portal/internal/cache"
	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/database"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/query"
	"github.com/Additional-Code/portal/internal/render/xlsx"
	"github.com/Additional-Code/portal/internal/repository/activity"
	serverhttp "github.com/Additional-Code/portal/internal/server/http"
	brandingsvc "github.com/Additional-Code/portal/internal/service/branding"
	service "github.com/Additional-Code/portal/internal/service/invoice"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/internal/transport/http/auth"
)

type stubAuth struct{}

func (stubAuth) FromAuthorization(header string) (session.Session, error) {
	if header != "Bearer good" {
		return session.Session{}, session.ErrMissingToken
	}
	return session.Session{UserID: "cust-1", Token: "good"}, nil
}

func invoice(id, number string, status entity.InvoiceStatus, total int64) entity.Invoice {
	return entity.Invoice{
		ID:            entity.ID(id),
		InvoiceNumber: number,
		Date:          entity.NewDate(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
		Status:        status,
		Total:         decimal.NewFromInt(total),
	}
}

func setup(t *testing.T) (*echo.Echo, *backendtest.Fake) {
	t.Helper()
	partial := invoice("3", "INV-003", entity.InvoicePartiallyPaid, 1000)
	partial.BalanceDue = decimal.NewNullDecimal(decimal.NewFromInt(400))
	fake := &backendtest.Fake{
		Invoices: []entity.Invoice{
			invoice("1", "INV-001", entity.InvoicePaid, 500),
			invoice("2", "INV-002", entity.InvoiceSent, 750),
			partial,
			invoice("4", "INV-004", entity.InvoiceDraft, 90),
		},
		Branding: entity.Branding{CompanyName: "Acme"},
	}

	qc := query.NewCache(cache.NewMemoryStore(32, time.Minute), time.Minute, zap.NewNop())
	brand := brandingsvc.NewService(fake, qc, zap.NewNop())
	svc := service.NewService(service.Params{
		Backend:     fake,
		Cache:       qc,
		Invalidator: qc,
		Branding:    brand,
		Journal:     activity.NewJournal(&database.Connections{}, zap.NewNop()),
		Logger:      zap.NewNop(),
	})

	e := serverhttp.NewEcho(config.Config{}, nil, zap.NewNop())
	Register(e.Group("/portal", auth.Middleware(stubAuth{})), NewHandler(svc, brand))
	return e, fake
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Notification struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Variant     string `json:"variant"`
		} `json:"notification"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestListRequiresBearer(t *testing.T) {
	e, _ := setup(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/invoices", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUnpaidTab(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodGet, "/portal/invoices?tab=unpaid&selected=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		State   string `json:"state"`
		Summary struct {
			TotalDue     string `json:"totalDue"`
			OpenInvoices int    `json:"openInvoices"`
		} `json:"summary"`
		Rows []struct {
			InvoiceNumber string `json:"invoiceNumber"`
			Selected      bool   `json:"selected"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))

	assert.Equal(t, "ready", view.State)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "INV-002", view.Rows[0].InvoiceNumber)
	assert.Equal(t, "INV-003", view.Rows[1].InvoiceNumber)
	assert.True(t, view.Rows[1].Selected)
	assert.Equal(t, 2, view.Summary.OpenInvoices)
}

func TestListRejectsUnknownTab(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodGet, "/portal/invoices?tab=overdue", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUnavailable(t *testing.T) {
	e, fake := setup(t)
	fake.ListErr = errors.New("connection refused")

	rec := do(e, http.MethodGet, "/portal/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		State string            `json:"state"`
		Rows  []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, "unavailable", view.State)
	assert.Empty(t, view.Rows)
}

func TestPay(t *testing.T) {
	e, fake := setup(t)
	rec := do(e, http.MethodPost, "/portal/invoices/3/pay", `{"amount": 400}`)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.Equal(t, "Payment Successful", env.Meta.Notification.Title)
	require.Len(t, fake.Payments, 1)
	assert.Equal(t, entity.ID("3"), fake.Payments[0].ID)
	assert.True(t, decimal.NewFromInt(400).Equal(fake.Payments[0].Amount))
}

func TestPayZeroAsString(t *testing.T) {
	e, fake := setup(t)
	rec := do(e, http.MethodPost, "/portal/invoices/2/pay", `{"amount": "0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.Payments, 1)
	assert.True(t, fake.Payments[0].Amount.IsZero())
}

func TestPayFailure(t *testing.T) {
	e, fake := setup(t)
	fake.PayErr = &backend.Error{Method: "POST", Path: "/api/flow/invoices/2/pay", StatusCode: 500}

	rec := do(e, http.MethodPost, "/portal/invoices/2/pay", `{"amount": 10}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Payment Failed", env.Meta.Notification.Title)
	assert.Equal(t, "Please try again.", env.Meta.Notification.Description)
	assert.Equal(t, "destructive", env.Meta.Notification.Variant)
}

func TestPayRequiresAmount(t *testing.T) {
	e, fake := setup(t)
	rec := do(e, http.MethodPost, "/portal/invoices/2/pay", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fake.Payments)
}

func TestDetail(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodGet, "/portal/invoices/3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		CanPay        bool   `json:"canPay"`
		DefaultAmount string `json:"defaultAmount"`
		Branding      struct {
			CompanyName string `json:"companyName"`
		} `json:"branding"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &detail))
	assert.True(t, detail.CanPay)
	assert.Equal(t, "400", detail.DefaultAmount)
	assert.Equal(t, "Acme", detail.Branding.CompanyName)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/portal/invoices/4", "").Code)
}

func TestExportAndPDF(t *testing.T) {
	e, _ := setup(t)

	rec := do(e, http.MethodGet, "/portal/invoices/export?tab=paid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsx.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "invoices-paid.xlsx")

	rec = do(e, http.MethodGet, "/portal/invoices/2/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestRefresh(t *testing.T) {
	e, fake := setup(t)
	do(e, http.MethodGet, "/portal/invoices", "")
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/portal/invoices/refresh", "").Code)
	do(e, http.MethodGet, "/portal/invoices", "")
	assert.Equal(t, 2, fake.InvoiceReads)
}
