package models

// Payment modes.
const (
	PaymentModeCash = "Cash"
	PaymentModeUPI  = "UPI"
	PaymentModeCard = "Card"
)

// Bill is created exactly once per completed order, inside the same
// atomic batch that marks the order COMPLETED.
type Bill struct {
	ID          int64   `bson:"id" json:"id"`
	OrderID     int64   `bson:"orderId" json:"order_id"`
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
	Tax         float64 `bson:"tax" json:"tax"`
	Discount    float64 `bson:"discount" json:"discount"`
	Total       float64 `bson:"total" json:"total"`
	PaymentMode string  `bson:"paymentMode" json:"payment_mode"`
	CreatedAt   int64   `bson:"createdAt" json:"created_at"`
}

func ValidPaymentMode(m string) bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeCard:
		return true
	}
	return false
}
