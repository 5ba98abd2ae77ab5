package models

// Expense is an independent ledger entry; it is not linked to any order.
type Expense struct {
	ID          int64   `bson:"id" json:"id"`
	Description string  `bson:"description" json:"description"`
	Amount      float64 `bson:"amount" json:"amount"`
	Date        int64   `bson:"date" json:"date"`
}
