// Package invoiceview derives the customer invoice list from fetched
// invoices and the user's search text and tab.
package invoiceview

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/view/format"
	"github.com/Additional-Code/portal/internal/view/status"
)

// Tab is a client-side status filter.
type Tab string

const (
	TabAll    Tab = "all"
	TabUnpaid Tab = "unpaid"
	TabPaid   Tab = "paid"
)

// Tabs lists the tabs in display order.
func Tabs() []Tab {
	return []Tab{TabAll, TabUnpaid, TabPaid}
}

// ParseTab accepts a tab name; empty selects TabAll.
func ParseTab(raw string) (Tab, bool) {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TabAll:
		return TabAll, true
	case TabUnpaid:
		return TabUnpaid, true
	case TabPaid:
		return TabPaid, true
	}
	return "", false
}

// Label is the tab caption.
func (t Tab) Label() string {
	if t == TabAll {
		return "All Invoices"
	}
	return string(t)
}

// Includes reports whether an invoice status belongs on the tab.
func (t Tab) Includes(s entity.InvoiceStatus) bool {
	switch t {
	case TabPaid:
		return s == entity.InvoicePaid
	case TabUnpaid:
		return s.Unpaid()
	default:
		return true
	}
}

// Visible reports whether a customer may see the invoice at all. Drafts are
// never shown.
func Visible(inv entity.Invoice) bool {
	return inv.Status != entity.InvoiceDraft
}

// MatchesSearch is a case-insensitive substring match on the invoice number.
func MatchesSearch(inv entity.Invoice, search string) bool {
	return strings.Contains(strings.ToLower(inv.InvoiceNumber), strings.ToLower(search))
}

// Filter keeps visible invoices matching search and tab, in input order.
func Filter(invoices []entity.Invoice, search string, tab Tab) []entity.Invoice {
	out := make([]entity.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if !Visible(inv) {
			continue
		}
		if MatchesSearch(inv, search) && tab.Includes(inv.Status) {
			out = append(out, inv)
		}
	}
	return out
}

// Summary holds the headline figures above the list. PaidLast30Days sums
// every paid invoice; no date window is applied.
type Summary struct {
	TotalDue       decimal.Decimal
	PaidLast30Days decimal.Decimal
	OpenCount      int
}

// Summarize computes the headline figures over the unfiltered collection.
func Summarize(invoices []entity.Invoice) Summary {
	var sum Summary
	for _, inv := range invoices {
		if inv.Status == entity.InvoicePaid {
			sum.PaidLast30Days = sum.PaidLast30Days.Add(inv.Total)
			continue
		}
		sum.TotalDue = sum.TotalDue.Add(inv.Outstanding())
		if inv.Status != entity.InvoiceDraft {
			sum.OpenCount++
		}
	}
	return sum
}

// SummaryView is Summary rendered for display.
type SummaryView struct {
	TotalDue       string `json:"totalDue"`
	PaidLast30Days string `json:"paidLast30Days"`
	OpenInvoices   int    `json:"openInvoices"`
}

// View renders the summary figures.
func (s Summary) View() SummaryView {
	return SummaryView{
		TotalDue:       format.RupeesCompact(s.TotalDue),
		PaidLast30Days: format.RupeesCompact(s.PaidLast30Days),
		OpenInvoices:   s.OpenCount,
	}
}

// Row is one rendered invoice line.
type Row struct {
	ID            entity.ID    `json:"id"`
	InvoiceNumber string       `json:"invoiceNumber"`
	Date          string       `json:"date"`
	DueDate       string       `json:"dueDate"`
	Badge         status.Badge `json:"badge"`
	Amount        string       `json:"amount"`
	Balance       string       `json:"balance"`
	CanPay        bool         `json:"canPay"`
	Selected      bool         `json:"selected"`
}

// NewRow renders a single invoice.
func NewRow(inv entity.Invoice, selected entity.ID) Row {
	return Row{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date.Display(),
		DueDate:       inv.DueDate.Display(),
		Badge:         status.InvoiceBadge(inv.Status),
		Amount:        format.Rupees(inv.Total),
		Balance:       format.Rupees(inv.Outstanding()),
		CanPay:        inv.Status != entity.InvoicePaid,
		Selected:      selected != "" && inv.ID == selected,
	}
}

// Rows renders invoices in order.
func Rows(invoices []entity.Invoice, selected entity.ID) []Row {
	rows := make([]Row, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, NewRow(inv, selected))
	}
	return rows
}

// Find returns the visible invoice with id.
func Find(invoices []entity.Invoice, id entity.ID) (entity.Invoice, bool) {
	for _, inv := range invoices {
		if inv.ID == id && Visible(inv) {
			return inv, true
		}
	}
	return entity.Invoice{}, false
}
