/*
errors.go - Centralized error types for the ledger core

ERROR CATEGORIES:
  1. Ledger errors - invalid entries, invariant violations
  2. Idempotency errors - order id collisions
  3. Store errors - wrapped database failures (not declared here)

USAGE:
  if errors.Is(err, ledger.ErrInsufficientBalance) {
      // client error, nothing was written
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientBalance is returned when a batch would drive a resource
	// balance below zero. Nothing is written.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateOrder is returned by OrderStore.InsertOrder when the order id
	// already exists. For callers this means "someone else applied it first".
	ErrDuplicateOrder = errors.New("order already executed")

	// ErrUnknownResource is returned for resource names outside AllResources.
	ErrUnknownResource = errors.New("unknown resource")

	// ErrEmptyOrderID is returned when an idempotent operation has no token.
	ErrEmptyOrderID = errors.New("order id is required")

	// ErrOrderKindMismatch is returned when an order id was already executed
	// as a different kind of operation.
	ErrOrderKindMismatch = errors.New("order id already used by another operation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a shortage.
type InsufficientBalanceError struct {
	Resource  Resource
	Available int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s: available %d, requested %d",
		e.Resource, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is caused by the request rather
// than by the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrUnknownResource) ||
		errors.Is(err, ErrEmptyOrderID) ||
		errors.Is(err, ErrOrderKindMismatch)
}

// IsDuplicateOrder returns true if a concurrent request committed the same
// order id first.
func IsDuplicateOrder(err error) bool {
	return errors.Is(err, ErrDuplicateOrder)
}
