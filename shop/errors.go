package shop

import (
	"errors"

	"github.com/warp/potion-shop/ledger"
)

var (
	ErrInvalidBarrel   = errors.New("invalid barrel")
	ErrInvalidMix      = errors.New("invalid potion mix")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrCatalogTooLarge = errors.New("too many lines")
	ErrUnknownSKU      = errors.New("unknown sku")
	ErrInvalidOrderID  = errors.New("invalid order id")
	ErrInvalidCapacity = errors.New("invalid capacity purchase")
	ErrInvalidCart     = errors.New("invalid cart")
	ErrCartNotFound    = errors.New("cart not found")
	ErrEmptyCart       = errors.New("cart is empty")
)

// IsClientError returns true if err should be reported as a 4xx.
func IsClientError(err error) bool {
	return ledger.IsClientError(err) ||
		errors.Is(err, ErrInvalidBarrel) ||
		errors.Is(err, ErrInvalidMix) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrCatalogTooLarge) ||
		errors.Is(err, ErrUnknownSKU) ||
		errors.Is(err, ErrInvalidOrderID) ||
		errors.Is(err, ErrInvalidCapacity) ||
		errors.Is(err, ErrInvalidCart) ||
		errors.Is(err, ErrEmptyCart)
}

// IsNotFound returns true if err refers to a missing aggregate.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCartNotFound)
}
