// Package backendtest provides an in-memory backend.Client for tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/portal/internal/entity"
)

// Payment is a recorded PayInvoice call.
type Payment struct {
	Token  string
	ID     entity.ID
	Amount decimal.Decimal
}

// Decision is a recorded ActOnSalesOrder call.
type Decision struct {
	Token  string
	ID     entity.ID
	Action entity.OrderAction
}

// Fake serves canned collections and records mutations. Set the *Err fields
// to make the matching calls fail.
type Fake struct {
	mu sync.Mutex

	Invoices    []entity.Invoice
	SalesOrders []entity.SalesOrder
	Branding    entity.Branding

	ListErr     error
	BrandingErr error
	PayErr      error
	ActErr      error

	InvoiceReads    int
	SalesOrderReads int
	Payments        []Payment
	Decisions       []Decision
}

func (f *Fake) ListInvoices(_ context.Context, _ string) ([]entity.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InvoiceReads++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]entity.Invoice{}, f.Invoices...), nil
}

func (f *Fake) ListSalesOrders(_ context.Context, _ string) ([]entity.SalesOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SalesOrderReads++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]entity.SalesOrder{}, f.SalesOrders...), nil
}

func (f *Fake) GetBranding(_ context.Context, _ string) (entity.Branding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BrandingErr != nil {
		return entity.Branding{}, f.BrandingErr
	}
	return f.Branding, nil
}

func (f *Fake) PayInvoice(_ context.Context, token string, id entity.ID, amount decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Payments = append(f.Payments, Payment{Token: token, ID: id, Amount: amount})
	return f.PayErr
}

func (f *Fake) ActOnSalesOrder(_ context.Context, token string, id entity.ID, action entity.OrderAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Decisions = append(f.Decisions, Decision{Token: token, ID: id, Action: action})
	return f.ActErr
}
