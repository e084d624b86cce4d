// Package orderview renders sales orders as review cards.
package orderview

import (
	"fmt"
	"strings"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/view/format"
	"github.com/Additional-Code/portal/internal/view/status"
)

// ItemLine is one rendered line item.
type ItemLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Card is a rendered sales order.
type Card struct {
	ID      entity.ID            `json:"id"`
	Number  string               `json:"number"`
	Date    string               `json:"date"`
	Badge   status.Badge         `json:"badge"`
	Items   []ItemLine           `json:"items"`
	Total   string               `json:"total"`
	Actions []entity.OrderAction `json:"actions"`
}

// ItemLabel renders "name x quantity unit".
func ItemLabel(item entity.LineItem) string {
	label := fmt.Sprintf("%s x %s", item.Name, format.Quantity(item.Quantity))
	if unit := strings.TrimSpace(item.Unit); unit != "" {
		label += " " + unit
	}
	return label
}

// Actions lists the decisions available on an order. Only orders still
// awaiting the customer's decision can be approved or rejected.
func Actions(order entity.SalesOrder) []entity.OrderAction {
	if !order.AwaitingDecision() {
		return []entity.OrderAction{}
	}
	return []entity.OrderAction{entity.ActionApprove, entity.ActionReject}
}

// NewCard renders one order.
func NewCard(order entity.SalesOrder) Card {
	items := make([]ItemLine, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, ItemLine{
			Label:  ItemLabel(item),
			Amount: format.RupeesCompact(item.Amount),
		})
	}
	return Card{
		ID:      order.ID,
		Number:  order.Number,
		Date:    order.Date.Display(),
		Badge:   status.OrderBadge(order.Status),
		Items:   items,
		Total:   format.RupeesCompact(order.Total),
		Actions: Actions(order),
	}
}

// Cards renders every fetched order, in order.
func Cards(orders []entity.SalesOrder) []Card {
	cards := make([]Card, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, NewCard(o))
	}
	return cards
}

// Find returns the order with id.
func Find(orders []entity.SalesOrder, id entity.ID) (entity.SalesOrder, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return entity.SalesOrder{}, false
}

// View is the rendered sales order page.
type View struct {
	State string `json:"state"`
	Cards []Card `json:"cards"`
}

// Render derives the page from fetched orders.
func Render(orders []entity.SalesOrder, fetchErr error) View {
	switch {
	case fetchErr != nil:
		return View{State: "unavailable", Cards: []Card{}}
	case len(orders) == 0:
		return View{State: "empty", Cards: []Card{}}
	default:
		return View{State: "ready", Cards: Cards(orders)}
	}
}
