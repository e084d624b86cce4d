package invoiceview

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/notify"
	"github.com/Additional-Code/portal/internal/view/format"
)

// State distinguishes the list's loading and empty conditions.
type State string

const (
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StateEmpty       State = "empty"
	StateUnavailable State = "unavailable"
)

// Payer submits a payment for the current session.
type Payer interface {
	Pay(ctx context.Context, id entity.ID, amount decimal.Decimal) (notify.Notification, error)
}

// PaymentDialog is the record-payment modal.
type PaymentDialog struct {
	Open    bool
	Invoice entity.Invoice
	Amount  string
	Pending bool
}

// Page is the ephemeral view state of the invoice list. It owns no domain
// data; every render derives from the fetched collection.
type Page struct {
	Search   string
	Tab      Tab
	Selected entity.ID
	Dialog   PaymentDialog
}

// NewPage starts on the "all" tab with no search.
func NewPage() *Page {
	return &Page{Tab: TabAll}
}

// Select opens the detail panel for id; empty closes it.
func (p *Page) Select(id entity.ID) {
	p.Selected = id
}

// OpenPayment opens the payment dialog prefilled with the balance due.
func (p *Page) OpenPayment(inv entity.Invoice) {
	p.Dialog = PaymentDialog{
		Open:    true,
		Invoice: inv,
		Amount:  inv.Outstanding().String(),
	}
}

// SetAmount overrides the amount to pay.
func (p *Page) SetAmount(amount string) {
	p.Dialog.Amount = amount
}

// ClosePayment dismisses the dialog.
func (p *Page) ClosePayment() {
	p.Dialog = PaymentDialog{}
}

// Description is the dialog prompt.
func (d PaymentDialog) Description() string {
	return fmt.Sprintf("Enter the amount you would like to pay for %s.", d.Invoice.InvoiceNumber)
}

// ParseAmount reads a user entered amount. Blank input reads as zero; no
// minimum is enforced.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), format.CurrencySymbol)
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// SubmitPayment sends the dialog's amount. On success the dialog closes; on
// failure it stays open with the entered amount so the user can retry.
func (p *Page) SubmitPayment(ctx context.Context, payer Payer) notify.Notification {
	if !p.Dialog.Open {
		return notify.Failure("Payment Failed", "No invoice selected for payment.")
	}
	amount, err := ParseAmount(p.Dialog.Amount)
	if err != nil {
		return notify.Failure("Payment Failed", "Enter a valid amount.")
	}

	p.Dialog.Pending = true
	n, err := payer.Pay(ctx, p.Dialog.Invoice.ID, amount)
	p.Dialog.Pending = false
	if err != nil || n.Failed() {
		return n
	}
	p.ClosePayment()
	return n
}

// View is the rendered invoice page.
type View struct {
	State   State       `json:"state"`
	Tab     Tab         `json:"tab"`
	Search  string      `json:"search"`
	Tabs    []TabView   `json:"tabs"`
	Summary SummaryView `json:"summary"`
	Rows    []Row       `json:"rows"`
}

// TabView is one tab button.
type TabView struct {
	Tab    Tab    `json:"tab"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Render derives the page from fetched invoices. A nil slice with fetchErr
// set renders as an unavailable, empty list.
func (p *Page) Render(invoices []entity.Invoice, fetchErr error) View {
	v := View{
		Tab:    p.Tab,
		Search: p.Search,
		Tabs:   make([]TabView, 0, 3),
		Rows:   []Row{},
	}
	for _, t := range Tabs() {
		v.Tabs = append(v.Tabs, TabView{Tab: t, Label: t.Label(), Active: t == p.Tab})
	}

	if fetchErr != nil {
		v.State = StateUnavailable
		v.Summary = Summary{}.View()
		return v
	}

	v.Summary = Summarize(invoices).View()
	v.Rows = Rows(Filter(invoices, p.Search, p.Tab), p.Selected)
	if len(v.Rows) == 0 {
		v.State = StateEmpty
	} else {
		v.State = StateReady
	}
	return v
}
