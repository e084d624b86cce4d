package entity

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the canonical invoice status. Values outside the known set
// keep the raw upstream spelling.
type InvoiceStatus string

const (
	InvoiceDraft               InvoiceStatus = "Draft"
	InvoiceSent                InvoiceStatus = "Sent"
	InvoicePaid                InvoiceStatus = "Paid"
	InvoiceOverdue             InvoiceStatus = "Overdue"
	InvoicePartiallyPaid       InvoiceStatus = "Partially Paid"
	InvoicePendingVerification InvoiceStatus = "Pending Verification"
)

var invoiceStatuses = map[string]InvoiceStatus{
	"DRAFT":               InvoiceDraft,
	"SENT":                InvoiceSent,
	"PAID":                InvoicePaid,
	"OVERDUE":             InvoiceOverdue,
	"PARTIALLYPAID":       InvoicePartiallyPaid,
	"PENDINGVERIFICATION": InvoicePendingVerification,
}

// ParseInvoiceStatus maps any spelling of a known status onto its canonical
// value. Unknown statuses are returned trimmed but otherwise untouched.
func ParseInvoiceStatus(raw string) InvoiceStatus {
	if s, ok := invoiceStatuses[statusKey(raw)]; ok {
		return s
	}
	return InvoiceStatus(strings.TrimSpace(raw))
}

// Known reports whether the status belongs to the canonical set.
func (s InvoiceStatus) Known() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoicePartiallyPaid, InvoicePendingVerification:
		return true
	}
	return false
}

// Unpaid reports whether the invoice still expects money from the customer.
func (s InvoiceStatus) Unpaid() bool {
	switch s {
	case InvoiceSent, InvoiceOverdue, InvoicePartiallyPaid, InvoicePendingVerification:
		return true
	}
	return false
}

// UnmarshalJSON normalises the status at ingestion.
func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = ""
		return nil
	}
	*s = ParseInvoiceStatus(*raw)
	return nil
}

// Invoice is a customer invoice as reported by the backend.
type Invoice struct {
	ID            ID                  `json:"id"`
	InvoiceNumber string              `json:"invoiceNumber"`
	Date          Date                `json:"date"`
	DueDate       Date                `json:"dueDate"`
	Status        InvoiceStatus       `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	BalanceDue    decimal.NullDecimal `json:"balanceDue"`
}

// Outstanding returns the balance due, falling back to the total when the
// backend does not track a separate balance.
func (i Invoice) Outstanding() decimal.Decimal {
	if i.BalanceDue.Valid {
		return i.BalanceDue.Decimal
	}
	return i.Total
}
