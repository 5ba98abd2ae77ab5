package models

import "time"

// Order statuses. An order is created RUNNING and only ever becomes
// COMPLETED through the payment-completion batch.
const (
	OrderStatusRunning        = "RUNNING"
	OrderStatusPaymentPending = "PAYMENT PENDING"
	OrderStatusCompleted      = "COMPLETED"
)

// Order types.
const (
	OrderTypeDineIn = "Dine-in"
	OrderTypeParcel = "Parcel"
	OrderTypeZomato = "Zomato"
)

// Order is a customer order. TotalAmount is a denormalized cache of the
// sum over the order's items, recomputed after every item mutation; the
// receipt formatter sums the items directly and does not trust it.
type Order struct {
	ID           int64   `bson:"id" json:"id"`
	StoreID      string  `bson:"storeId" json:"store_id"`
	CustomerName string  `bson:"customerName" json:"customer_name"`
	OrderType    string  `bson:"orderType" json:"order_type"`
	StartTime    int64   `bson:"startTime" json:"start_time"`
	Status       string  `bson:"status" json:"status"`
	TotalAmount  float64 `bson:"totalAmount" json:"total_amount"`
}

func ValidOrderType(t string) bool {
	switch t {
	case OrderTypeDineIn, OrderTypeParcel, OrderTypeZomato:
		return true
	}
	return false
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusRunning, OrderStatusPaymentPending, OrderStatusCompleted:
		return true
	}
	return false
}

// NowMillis is the timestamp format used across all entities (epoch ms).
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
