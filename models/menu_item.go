package models

// Portions a menu item can be served in. Regular is the default for
// items without portion pricing.
const (
	PortionRegular = "Regular"
	PortionHalf    = "Half"
	PortionFull    = "Full"
)

type MenuItem struct {
	ID          int64    `bson:"id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Category    string   `bson:"category" json:"category"`
	Price       float64  `bson:"price" json:"price"`
	PriceHalf   *float64 `bson:"priceHalf" json:"price_half,omitempty"`
	PriceFull   *float64 `bson:"priceFull" json:"price_full,omitempty"`
	HasPortions bool     `bson:"hasPortions" json:"has_portions"`
	IsVeg       bool     `bson:"isVeg" json:"is_veg"`
	IsActive    bool     `bson:"isActive" json:"is_active"`
	SortOrder   int      `bson:"sortOrder" json:"sort_order"`
}

// PriceFor returns the unit price for a portion, falling back to the
// flat price when the portion price is absent.
func (m MenuItem) PriceFor(portion string) float64 {
	switch portion {
	case PortionHalf:
		if m.PriceHalf != nil {
			return *m.PriceHalf
		}
	case PortionFull:
		if m.PriceFull != nil {
			return *m.PriceFull
		}
	}
	return m.Price
}

func ValidPortion(p string) bool {
	switch p {
	case PortionRegular, PortionHalf, PortionFull:
		return true
	}
	return false
}
