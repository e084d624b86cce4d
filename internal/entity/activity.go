package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Activity outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Activity kinds.
const (
	ActivityInvoicePayment = "invoice.payment"
	ActivityOrderApproval  = "salesorder.approve"
	ActivityOrderRejection = "salesorder.reject"
)

// Activity is one journaled mutation attempt made through the portal.
type Activity struct {
	bun.BaseModel `bun:"table:portal_activity"`

	ID         string              `bun:"id,pk" json:"id"`
	UserID     string              `bun:"user_id,notnull" json:"userId"`
	Kind       string              `bun:"kind,notnull" json:"kind"`
	ResourceID string              `bun:"resource_id,notnull" json:"resourceId"`
	Amount     decimal.NullDecimal `bun:"amount" json:"amount,omitempty"`
	Outcome    string              `bun:"outcome,notnull" json:"outcome"`
	Message    string              `bun:"message" json:"message,omitempty"`
	CreatedAt  time.Time           `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"createdAt"`
}
