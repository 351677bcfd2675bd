package cart

import "errors"

var (
	// -- Validation & Input --
	ErrQuantityExceeded = errors.New("quantity exceeded: a cart line cannot hold more than 99")

	// -- Resource State --
	ErrDishUnavailable  = errors.New("dish not found or unavailable")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")

	// -- Storage Failures --
	ErrFailedLoadCart  = errors.New("failed to load cart")
	ErrFailedSaveCart  = errors.New("failed to save cart")
	ErrFailedClearCart = errors.New("failed to clear cart")
)
