package orderview

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/view/status"
)

func order(id, st string) entity.SalesOrder {
	return entity.SalesOrder{
		ID:     entity.ID(id),
		Number: "SO-" + id,
		Status: entity.ParseOrderStatus(st),
		Items: []entity.LineItem{
			{Name: "Cement", Quantity: decimal.NewFromInt(10), Unit: "bags", Amount: decimal.NewFromInt(4500)},
			{Name: "Labour", Quantity: decimal.RequireFromString("1.5"), Amount: decimal.RequireFromString("1200.5")},
		},
		Total: decimal.RequireFromString("5700.5"),
	}
}

func TestActionsOnlyForSent(t *testing.T) {
	assert.Equal(t, []entity.OrderAction{entity.ActionApprove, entity.ActionReject}, Actions(order("1", "Sent")))
	assert.Equal(t, []entity.OrderAction{entity.ActionApprove, entity.ActionReject}, Actions(order("1", "SENT")))
	assert.Empty(t, Actions(order("2", "Approved")))
	assert.Empty(t, Actions(order("3", "rejected")))
	assert.Empty(t, Actions(order("4", "Draft")))
}

func TestNewCard(t *testing.T) {
	card := NewCard(order("1", "sent"))

	assert.Equal(t, "SO-1", card.Number)
	assert.Equal(t, status.Badge{Label: "Received", Tone: status.ToneInfo}, card.Badge)
	require.Len(t, card.Items, 2)
	assert.Equal(t, ItemLine{Label: "Cement x 10 bags", Amount: "₹4,500"}, card.Items[0])
	assert.Equal(t, ItemLine{Label: "Labour x 1.5", Amount: "₹1,200.5"}, card.Items[1])
	assert.Equal(t, "₹5,700.5", card.Total)
}

func TestCardsRenderEveryOrder(t *testing.T) {
	cards := Cards([]entity.SalesOrder{order("1", "Sent"), order("2", "Approved"), order("3", "Mystery")})
	require.Len(t, cards, 3)
	assert.Equal(t, "Mystery", cards[2].Badge.Label)
	assert.Equal(t, status.ToneSecondary, cards[2].Badge.Tone)
}

func TestRenderStates(t *testing.T) {
	assert.Equal(t, "unavailable", Render(nil, errors.New("down")).State)
	assert.Equal(t, "empty", Render([]entity.SalesOrder{}, nil).State)

	v := Render([]entity.SalesOrder{order("1", "Sent")}, nil)
	assert.Equal(t, "ready", v.State)
	assert.Len(t, v.Cards, 1)
}

func TestFind(t *testing.T) {
	orders := []entity.SalesOrder{order("1", "Sent"), order("2", "Approved")}
	o, ok := Find(orders, "2")
	require.True(t, ok)
	assert.Equal(t, entity.OrderApproved, o.Status)

	_, ok = Find(orders, "9")
	assert.False(t, ok)
}
