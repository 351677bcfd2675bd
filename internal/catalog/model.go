package catalog

import "github.com/shopspring/decimal"

// Dish is the sellable view of a menu item at lookup time.
type Dish struct {
	ID    uint
	Name  string
	Price decimal.Decimal
}
