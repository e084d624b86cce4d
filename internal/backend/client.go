// Package backend is the HTTP client for the upstream business API that owns
// invoices, sales orders, payments and branding.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/entity"
)

const maxErrorBody = 64 << 10

// Client is the subset of the upstream API the portal consumes.
type Client interface {
	ListInvoices(ctx context.Context, token string) ([]entity.Invoice, error)
	ListSalesOrders(ctx context.Context, token string) ([]entity.SalesOrder, error)
	GetBranding(ctx context.Context, token string) (entity.Branding, error)
	PayInvoice(ctx context.Context, token string, id entity.ID, amount decimal.Decimal) error
	ActOnSalesOrder(ctx context.Context, token string, id entity.ID, action entity.OrderAction) error
}

// Module provides the upstream client.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(c *HTTPClient) Client { return c }),
)

// Error is a non-success response from the backend.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the human readable message from the response body, if any.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.StatusCode)
}

// ServerMessage returns the backend supplied message carried by err, if any.
func ServerMessage(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}

// HTTPClient talks JSON to the backend over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New builds an HTTPClient from configuration. A zero timeout leaves requests
// bounded only by the caller's context.
func New(cfg config.Config, logger *zap.Logger) *HTTPClient {
	return NewHTTPClient(cfg.Backend.BaseURL, &http.Client{
		Timeout:   cfg.Backend.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, logger)
}

// NewHTTPClient builds a client against baseURL using hc.
func NewHTTPClient(baseURL string, hc *http.Client, logger *zap.Logger) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		logger:  logger,
	}
}

// ListInvoices reads the invoice collection for the session.
func (c *HTTPClient) ListInvoices(ctx context.Context, token string) ([]entity.Invoice, error) {
	var out []entity.Invoice
	if err := c.read(ctx, token, "/api/invoices", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.Invoice{}
	}
	return out, nil
}

// ListSalesOrders reads the sales orders addressed to the session's customer.
func (c *HTTPClient) ListSalesOrders(ctx context.Context, token string) ([]entity.SalesOrder, error) {
	var out []entity.SalesOrder
	if err := c.read(ctx, token, "/api/flow/my-sales-orders", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []entity.SalesOrder{}
	}
	return out, nil
}

// GetBranding reads the organisation branding.
func (c *HTTPClient) GetBranding(ctx context.Context, token string) (entity.Branding, error) {
	var out entity.Branding
	err := c.read(ctx, token, "/api/branding", &out)
	return out, err
}

// PayInvoice submits a payment. The amount is sent exactly as given.
func (c *HTTPClient) PayInvoice(ctx context.Context, token string, id entity.ID, amount decimal.Decimal) error {
	body := payRequest{Amount: json.Number(amount.String())}
	return c.write(ctx, token, "/api/flow/invoices/"+url.PathEscape(id.String())+"/pay", body)
}

// payRequest carries the amount as a bare JSON number; decimal.Decimal
// marshals as a quoted string, which the upstream rejects.
type payRequest struct {
	Amount json.Number `json:"amount"`
}

type actionRequest struct {
	Action entity.OrderAction `json:"action"`
}

// ActOnSalesOrder approves or rejects a sales order.
func (c *HTTPClient) ActOnSalesOrder(ctx context.Context, token string, id entity.ID, action entity.OrderAction) error {
	body := actionRequest{Action: action}
	return c.write(ctx, token, "/api/flow/sales-orders/"+url.PathEscape(id.String())+"/action", body)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (c *HTTPClient) read(ctx context.Context, token, path string, dst any) error {
	resp, err := c.do(ctx, http.MethodGet, token, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(http.MethodGet, path, resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) write(ctx context.Context, token, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	resp, err := c.do(ctx, http.MethodPost, token, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(http.MethodPost, path, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, token, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func (c *HTTPClient) responseError(method, path string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env envelope
	_ = json.Unmarshal(raw, &env)

	c.logger.Debug("backend returned failure",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", env.Message),
	)
	return &Error{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(env.Message),
	}
}
