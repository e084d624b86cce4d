package salesorder

import (
	"encoding/json"
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
	"github.com/Additional-Code/portal/internal/repository/activity"
	serverhttp "github.com/Additional-Code/portal/internal/server/http"
	brandingsvc "github.com/Additional-Code/portal/internal/service/branding"
	service "github.com/Additional-Code/portal/internal/service/salesorder"
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

func order(id string, status entity.OrderStatus) entity.SalesOrder {
	return entity.SalesOrder{
		ID:     entity.ID(id),
		Number: "SO-" + id,
		Status: status,
		Items:  []entity.LineItem{{Name: "Bricks", Quantity: decimal.NewFromInt(500), Unit: "pcs", Amount: decimal.NewFromInt(3000)}},
		Total:  decimal.NewFromInt(3000),
	}
}

func setup(t *testing.T) (*echo.Echo, *backendtest.Fake) {
	t.Helper()
	fake := &backendtest.Fake{SalesOrders: []entity.SalesOrder{order("1", entity.OrderSent), order("2", entity.OrderApproved)}}
	qc := query.NewCache(cache.NewMemoryStore(32, time.Minute), time.Minute, zap.NewNop())
	svc := service.NewService(service.Params{
		Backend:     fake,
		Cache:       qc,
		Invalidator: qc,
		Branding:    brandingsvc.NewService(fake, qc, zap.NewNop()),
		Journal:     activity.NewJournal(&database.Connections{}, zap.NewNop()),
		Logger:      zap.NewNop(),
	})

	e := serverhttp.NewEcho(config.Config{}, nil, zap.NewNop())
	Register(e.Group("/portal", auth.Middleware(stubAuth{})), NewHandler(svc))
	return e, fake
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Notification struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"notification"`
	} `json:"meta"`
}

func TestListCards(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodGet, "/portal/sales-orders", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var view struct {
		State string `json:"state"`
		Cards []struct {
			Number  string   `json:"number"`
			Actions []string `json:"actions"`
			Badge   struct {
				Label string `json:"label"`
			} `json:"badge"`
		} `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))

	assert.Equal(t, "ready", view.State)
	require.Len(t, view.Cards, 2)
	assert.Equal(t, "Received", view.Cards[0].Badge.Label)
	assert.Equal(t, []string{"approve", "reject"}, view.Cards[0].Actions)
	assert.Empty(t, view.Cards[1].Actions)
}

func TestActApprove(t *testing.T) {
	e, fake := setup(t)
	rec := do(e, http.MethodPost, "/portal/sales-orders/1/action", `{"action":"approve"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Success", env.Meta.Notification.Title)
	assert.Equal(t, "Sales order approved successfully", env.Meta.Notification.Description)
	require.Len(t, fake.Decisions, 1)
	assert.Equal(t, "good", fake.Decisions[0].Token)
}

func TestActAlreadyProcessed(t *testing.T) {
	e, fake := setup(t)
	fake.ActErr = &backend.Error{Method: "POST", Path: "/api/flow/sales-orders/2/action", StatusCode: 409, Message: "Order already processed"}

	rec := do(e, http.MethodPost, "/portal/sales-orders/2/action", `{"action":"reject"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Error", env.Meta.Notification.Title)
	assert.Equal(t, "Order already processed", env.Meta.Notification.Description)
}

func TestActRejectsUnknownAction(t *testing.T) {
	e, fake := setup(t)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/portal/sales-orders/1/action", `{"action":"cancel"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, "/portal/sales-orders/1/action", `{}`).Code)
	assert.Empty(t, fake.Decisions)
}

func TestDocument(t *testing.T) {
	e, _ := setup(t)
	rec := do(e, http.MethodGet, "/portal/sales-orders/1/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = do(e, http.MethodGet, "/portal/sales-orders/99/pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "Failed to generate PDF", env.Meta.Notification.Title)
}

func TestRefresh(t *testing.T) {
	e, fake := setup(t)
	do(e, http.MethodGet, "/portal/sales-orders", "")
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/portal/sales-orders/refresh", "").Code)
	do(e, http.MethodGet, "/portal/sales-orders", "")
	assert.Equal(t, 2, fake.SalesOrderReads)
}
