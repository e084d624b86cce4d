// Package dto holds the request and response shapes of the portal HTTP API.
package dto

import (
	"github.com/shopspring/decimal"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/notify"
	"github.com/Additional-Code/portal/internal/view/invoiceview"
)

// PayRequest is the body of POST /portal/invoices/:id/pay. The amount may be
// a JSON number or a numeric string; zero is accepted.
type PayRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// ActionRequest is the body of POST /portal/sales-orders/:id/action.
type ActionRequest struct {
	Action string `json:"action" validate:"required"`
}

// MutationResponse carries the toast produced by a mutation.
type MutationResponse struct {
	Notification notify.Notification `json:"notification"`
}

// InvoiceDetail is the slide-over panel for one invoice.
type InvoiceDetail struct {
	Invoice       invoiceview.Row `json:"invoice"`
	Branding      entity.Branding `json:"branding"`
	CanPay        bool            `json:"canPay"`
	DefaultAmount string          `json:"defaultAmount"`
}

// ActivityList wraps journal entries.
type ActivityList struct {
	Entries []entity.Activity `json:"entries"`
}
