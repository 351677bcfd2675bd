package cart

import "github.com/shopspring/decimal"

// Item is a stored cart line. Only the dish id and quantity are kept; names
// and prices are always re-read from the catalog.
type Item struct {
	DishID   uint `json:"dishId"`
	Quantity int  `json:"quantity"`
}

// Cart keeps lines in insertion order with at most one line per dish.
type Cart struct {
	Items []Item `json:"items"`
}

func (c *Cart) find(dishID uint) int {
	for i, it := range c.Items {
		if it.DishID == dishID {
			return i
		}
	}
	return -1
}

func (c *Cart) DishIDs() []uint {
	ids := make([]uint, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.DishID)
	}
	return ids
}

// Line is a priced cart line as exposed to callers.
type Line struct {
	DishID   uint            `json:"dishId"`
	Name     string          `json:"dishName"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Snapshot struct {
	Items     []Line          `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func (s *Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}
