package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", srv.Client(), zap.NewNop())
}

func TestListInvoicesDecodesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/invoices", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"id":"1","invoiceNumber":"INV-1","status":"PAID","total":100}]}`)
	})

	invoices, err := c.ListInvoices(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, entity.InvoicePaid, invoices[0].Status)
}

func TestListInvoicesMissingDataIsEmpty(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":null}`, ``} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		invoices, err := c.ListInvoices(context.Background(), "tok")
		require.NoError(t, err, "body=%q", body)
		assert.NotNil(t, invoices)
		assert.Empty(t, invoices)
	}
}

func TestListSalesOrdersFailureStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flow/my-sales-orders", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"token expired"}`)
	})

	_, err := c.ListSalesOrders(context.Background(), "tok")
	require.Error(t, err)
	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusUnauthorized, be.StatusCode)
	assert.Equal(t, "token expired", ServerMessage(err))
}

func TestGetBranding(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/branding", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"companyName":"Acme Traders","logoUrl":"https://cdn/logo.png"}}`)
	})

	b, err := c.GetBranding(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", b.CompanyName)
	assert.Equal(t, "https://cdn/logo.png", b.LogoURL)
}

func TestPayInvoiceSendsAmountAsNumber(t *testing.T) {
	var body map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/flow/invoices/inv%2F7/pay", r.URL.EscapedPath())
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	err := c.PayInvoice(context.Background(), "tok", entity.ID("inv/7"), decimal.RequireFromString("400.5"))
	require.NoError(t, err)
	assert.Equal(t, "400.5", string(body["amount"]))
}

func TestPayInvoiceZeroAmountIsSent(t *testing.T) {
	var body map[string]json.RawMessage
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})

	require.NoError(t, c.PayInvoice(context.Background(), "tok", "1", decimal.Zero))
	assert.Equal(t, "0", string(body["amount"]))
}

func TestPayInvoiceRequestBody(t *testing.T) {
	var raw []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var err error
		raw, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	})

	require.NoError(t, c.PayInvoice(context.Background(), "tok", "1", decimal.RequireFromString("1500.50")))
	assert.JSONEq(t, `{"amount":1500.5}`, string(raw))
}

func TestActOnSalesOrderRequestBody(t *testing.T) {
	var raw []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var err error
		raw, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	})

	require.NoError(t, c.ActOnSalesOrder(context.Background(), "tok", "so-1", entity.ActionReject))
	assert.JSONEq(t, `{"action":"reject"}`, string(raw))
}

func TestActOnSalesOrderFailureCarriesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flow/sales-orders/X/action", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approve", body["action"])
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"already processed"}`)
	})

	err := c.ActOnSalesOrder(context.Background(), "tok", "X", entity.ActionApprove)
	require.Error(t, err)
	assert.Equal(t, "already processed", ServerMessage(err))
}

func TestActOnSalesOrderFailureWithoutJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	err := c.ActOnSalesOrder(context.Background(), "tok", "X", entity.ActionReject)
	require.Error(t, err)
	assert.Empty(t, ServerMessage(err))
}

func TestTransportFailure(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", &http.Client{}, nil)
	_, err := c.ListInvoices(context.Background(), "tok")
	require.Error(t, err)
	assert.Empty(t, ServerMessage(err))
}
