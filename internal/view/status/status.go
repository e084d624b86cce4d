// Package status maps invoice and sales order statuses onto display badges.
package status

import "github.com/Additional-Code/portal/internal/entity"

// Tone is the visual category of a badge. Outline and secondary are the
// unstyled fallbacks for statuses the portal does not recognise.
type Tone string

const (
	ToneSuccess     Tone = "success"
	ToneInfo        Tone = "info"
	ToneDanger      Tone = "danger"
	ToneWarning     Tone = "warning"
	ToneDestructive Tone = "destructive"
	ToneOutline     Tone = "outline"
	ToneSecondary   Tone = "secondary"
)

// Badge is a labelled status chip.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// InvoiceBadge never fails: unrecognised statuses are shown verbatim.
func InvoiceBadge(s entity.InvoiceStatus) Badge {
	switch s {
	case entity.InvoicePaid:
		return Badge{Label: "Paid", Tone: ToneSuccess}
	case entity.InvoiceSent:
		return Badge{Label: "Sent", Tone: ToneInfo}
	case entity.InvoiceOverdue:
		return Badge{Label: "Overdue", Tone: ToneDanger}
	case entity.InvoicePartiallyPaid:
		return Badge{Label: "Partially Paid", Tone: ToneWarning}
	default:
		return Badge{Label: string(s), Tone: ToneOutline}
	}
}

// OrderBadge maps a sales order status. A sent order reads as "Received"
// from the customer's side.
func OrderBadge(s entity.OrderStatus) Badge {
	switch s {
	case entity.OrderApproved:
		return Badge{Label: "Approved", Tone: ToneSuccess}
	case entity.OrderRejected:
		return Badge{Label: "Rejected", Tone: ToneDestructive}
	case entity.OrderSent:
		return Badge{Label: "Received", Tone: ToneInfo}
	default:
		return Badge{Label: string(s), Tone: ToneSecondary}
	}
}
