package models

// OrderItem is a line on an order. ItemName and PriceAtTimeOfOrder are
// denormalized from the menu item when the line is first added, so later
// menu edits never change an existing order. At most one row exists per
// (OrderID, MenuItemID, Portion); quantity changes merge into that row.
type OrderItem struct {
	ID                 int64   `bson:"id" json:"id"`
	OrderID            int64   `bson:"orderId" json:"order_id"`
	MenuItemID         int64   `bson:"menuItemId" json:"menu_item_id"`
	Portion            string  `bson:"portion" json:"portion"`
	ItemName           string  `bson:"itemName" json:"item_name"`
	Quantity           int     `bson:"quantity" json:"quantity"`
	PriceAtTimeOfOrder float64 `bson:"priceAtTimeOfOrder" json:"price_at_time_of_order"`
}
