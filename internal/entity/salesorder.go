package entity

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderStatus is the canonical sales order status.
type OrderStatus string

const (
	OrderSent     OrderStatus = "Sent"
	OrderApproved OrderStatus = "Approved"
	OrderRejected OrderStatus = "Rejected"
)

// ParseOrderStatus compares case-insensitively; unknown values keep their
// raw spelling.
func ParseOrderStatus(raw string) OrderStatus {
	switch statusKey(raw) {
	case "SENT":
		return OrderSent
	case "APPROVED":
		return OrderApproved
	case "REJECTED":
		return OrderRejected
	}
	return OrderStatus(strings.TrimSpace(raw))
}

// UnmarshalJSON normalises the status at ingestion.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = ""
		return nil
	}
	*s = ParseOrderStatus(*raw)
	return nil
}

// OrderAction is a customer decision on a sales order.
type OrderAction string

const (
	ActionApprove OrderAction = "approve"
	ActionReject  OrderAction = "reject"
)

// ParseOrderAction validates a user supplied action.
func ParseOrderAction(raw string) (OrderAction, bool) {
	switch OrderAction(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionApprove:
		return ActionApprove, true
	case ActionReject:
		return ActionReject, true
	}
	return "", false
}

// PastTense renders "approved" or "rejected".
func (a OrderAction) PastTense() string {
	return string(a) + "d"
}

// LineItem is one ordered product on a sales order.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Amount   decimal.Decimal `json:"amount"`
}

// SalesOrder is an order sent to the customer for review.
type SalesOrder struct {
	ID     ID              `json:"id"`
	Number string          `json:"salesOrderNumber"`
	Date   Date            `json:"date"`
	Status OrderStatus     `json:"orderStatus"`
	Items  []LineItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// AwaitingDecision reports whether the customer may still approve or reject.
func (o SalesOrder) AwaitingDecision() bool {
	return o.Status == OrderSent
}
