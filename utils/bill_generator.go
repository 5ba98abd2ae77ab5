package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/office/restobook/models"
)

const (
	billSeparator = "-----------------------------------\n"
	billNameWidth = 18
)

// GenerateBillText renders the fixed-width receipt for an order. It is
// a pure function: identical inputs yield byte-identical output, which
// reprinting and sharing rely on. bill may be nil while payment is
// pending; the pay mode then defaults to Cash. menuByID backs the item
// name fallback for lines whose denormalized name is empty.
//
// Subtotal and grand total are recomputed from the items here and are
// independent of Order.TotalAmount, which may be stale. Unit rates
// print with 0 decimals while the totals print with 2; the printed
// receipt has always looked like that, so it stays.
func GenerateBillText(order models.Order, items []models.OrderItem, bill *models.Bill, menuByID map[int64]models.MenuItem) string {
	var sb strings.Builder

	start := time.UnixMilli(order.StartTime)
	dateStr := start.Format("02 Jan 2006")
	timeStr := start.Format("03:04 PM")

	payMode := models.PaymentModeCash
	if bill != nil {
		payMode = bill.PaymentMode
	}

	sb.WriteString("        Pragati Pavbhaji & Pulav\n")
	sb.WriteString("   04, Kashtabhanjan food corner,\n")
	sb.WriteString("       pasodara patiya, kamrej.\n")
	sb.WriteString("       Contact: 9601949996\n")
	sb.WriteString(billSeparator)
	sb.WriteString(fmt.Sprintf(" Date: %s   Time: %s\n", dateStr, timeStr))
	sb.WriteString(fmt.Sprintf(" Bill No: %d\n", order.ID))
	sb.WriteString(fmt.Sprintf(" Customer: %s\n", order.CustomerName))
	sb.WriteString(fmt.Sprintf(" Pay Mode: %s\n", payMode))
	sb.WriteString(billSeparator)
	sb.WriteString(" Item               Qty   Rate  Amt\n")
	sb.WriteString(billSeparator)

	totalQty := 0
	var total float64
	for _, item := range items {
		name := displayName(item, menuByID)

		qty := padEnd(fmt.Sprintf("%d", item.Quantity), 5)
		rate := padEnd(fmt.Sprintf("%.0f", item.PriceAtTimeOfOrder), 6)
		amt := fmt.Sprintf("%.0f", item.PriceAtTimeOfOrder*float64(item.Quantity))

		if utf8.RuneCountInString(name) <= billNameWidth {
			sb.WriteString(fmt.Sprintf(" %s%s%s%s\n", padEnd(name, billNameWidth+1), qty, rate, amt))
		} else {
			// Numeric columns go on the first line only; the rest of
			// the name wraps onto bare continuation lines.
			runes := []rune(name)
			sb.WriteString(fmt.Sprintf(" %s%s%s%s\n", padEnd(string(runes[:billNameWidth]), billNameWidth+1), qty, rate, amt))
			for remaining := runes[billNameWidth:]; len(remaining) > 0; {
				part := remaining
				if len(part) > billNameWidth {
					part = part[:billNameWidth]
				}
				sb.WriteString(fmt.Sprintf(" %s\n", string(part)))
				remaining = remaining[len(part):]
			}
		}

		totalQty += item.Quantity
		total += item.PriceAtTimeOfOrder * float64(item.Quantity)
	}

	sb.WriteString(billSeparator)
	sb.WriteString(fmt.Sprintf(" Total Qty: %d\n", totalQty))
	sb.WriteString(fmt.Sprintf(" Sub Total:                %.2f\n", total))
	sb.WriteString(billSeparator)
	sb.WriteString(fmt.Sprintf(" GRAND TOTAL:        Rs. %.2f\n", total))
	sb.WriteString(billSeparator)
	sb.WriteString("     Thank You! Visit Again \U0001F60A\n")

	return sb.String()
}

// displayName resolves the printed name: denormalized item name, then
// the current menu name, then a synthesized placeholder. The portion is
// appended for anything other than Regular.
func displayName(item models.OrderItem, menuByID map[int64]models.MenuItem) string {
	name := item.ItemName
	if name == "" {
		if m, ok := menuByID[item.MenuItemID]; ok {
			name = m.Name
		} else {
			name = fmt.Sprintf("Item-%d", item.ID%1000)
		}
	}
	if item.Portion != models.PortionRegular {
		name += fmt.Sprintf(" (%s)", item.Portion)
	}
	return name
}

func padEnd(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
