package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/office/restobook/models"
)

func rajOrder() (models.Order, []models.OrderItem) {
	start := time.Date(2025, 3, 14, 19, 30, 0, 0, time.Local).UnixMilli()
	order := models.Order{
		ID:           1042,
		CustomerName: "Raj",
		OrderType:    models.OrderTypeDineIn,
		StartTime:    start,
	}
	items := []models.OrderItem{
		{ID: 1, OrderID: 1042, MenuItemID: 11, Portion: models.PortionFull, ItemName: "Butter Pulav", Quantity: 2, PriceAtTimeOfOrder: 120},
		{ID: 2, OrderID: 1042, MenuItemID: 12, Portion: models.PortionRegular, ItemName: "Chaash", Quantity: 3, PriceAtTimeOfOrder: 20},
	}
	return order, items
}

func TestGenerateBillTextIsDeterministic(t *testing.T) {
	order, items := rajOrder()
	bill := &models.Bill{PaymentMode: models.PaymentModeUPI}

	first := GenerateBillText(order, items, bill, nil)
	second := GenerateBillText(order, items, bill, nil)
	assert.Equal(t, first, second, "identical inputs must print byte-identical receipts")
}

func TestGenerateBillTextTotals(t *testing.T) {
	order, items := rajOrder()
	// The denormalized order total is stale on purpose; the receipt sums
	// the items itself.
	order.TotalAmount = 9999

	text := GenerateBillText(order, items, nil, nil)

	assert.Contains(t, text, " Bill No: 1042\n")
	assert.Contains(t, text, " Customer: Raj\n")
	assert.Contains(t, text, " Total Qty: 5\n")
	assert.Contains(t, text, " Sub Total:                300.00\n")
	assert.Contains(t, text, " GRAND TOTAL:        Rs. 300.00\n")
	// No bill yet: pay mode defaults to Cash.
	assert.Contains(t, text, " Pay Mode: Cash\n")
	// Unit rates print without decimals.
	assert.Contains(t, text, "120")
	assert.NotContains(t, text, "120.00")
	// The non-Regular portion rides on the name.
	assert.Contains(t, text, "Butter Pulav (Full")
}

func TestGenerateBillTextPayModeFromBill(t *testing.T) {
	order, items := rajOrder()
	bill := &models.Bill{PaymentMode: models.PaymentModeCard}

	text := GenerateBillText(order, items, bill, nil)
	assert.Contains(t, text, " Pay Mode: Card\n")
}

func TestGenerateBillTextWrapsLongNames(t *testing.T) {
	order, _ := rajOrder()
	items := []models.OrderItem{
		{ID: 1, OrderID: order.ID, MenuItemID: 11, Portion: models.PortionRegular,
			ItemName: "Special Cheese Masala Pav Bhaji Extra Butter", Quantity: 1, PriceAtTimeOfOrder: 120},
	}

	text := GenerateBillText(order, items, nil, nil)

	// The name is wrapped, never truncated: every 18-rune chunk shows up.
	assert.Contains(t, text, " Special Cheese Mas")
	assert.Contains(t, text, "ala Pav Bhaji Extr")
	assert.Contains(t, text, "a Butter\n")
	// Numeric columns ride on the first line only.
	firstLine := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, " Special Cheese Mas") {
			firstLine = line
			break
		}
	}
	assert.Contains(t, firstLine, "120")
}

func TestGenerateBillTextPortionSuffix(t *testing.T) {
	order, _ := rajOrder()
	items := []models.OrderItem{
		{ID: 1, OrderID: order.ID, MenuItemID: 11, Portion: models.PortionHalf,
			ItemName: "Pulav", Quantity: 1, PriceAtTimeOfOrder: 60},
	}

	text := GenerateBillText(order, items, nil, nil)
	assert.Contains(t, text, "Pulav (Half)")
}

func TestGenerateBillTextNameFallback(t *testing.T) {
	order, _ := rajOrder()
	items := []models.OrderItem{
		{ID: 2345, OrderID: order.ID, MenuItemID: 11, Portion: models.PortionRegular,
			Quantity: 1, PriceAtTimeOfOrder: 50},
		{ID: 2346, OrderID: order.ID, MenuItemID: 12, Portion: models.PortionRegular,
			Quantity: 1, PriceAtTimeOfOrder: 80},
	}
	menuByID := map[int64]models.MenuItem{
		11: {ID: 11, Name: "Masala Pav"},
	}

	text := GenerateBillText(order, items, nil, menuByID)

	// Known menu item: current menu name backs the missing snapshot.
	assert.Contains(t, text, "Masala Pav")
	// Unknown menu item: synthesized placeholder from the line id.
	assert.Contains(t, text, "Item-346")
}
