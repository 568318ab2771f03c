/*
idempotency.go - Executed-orders guard

PURPOSE:
  Makes delivery and checkout safe under at-least-once delivery from the
  caller. An order id is applied once; every later call with the same id
  gets the first call's response and mutates nothing.

PROTOCOL (inside one store transaction):
  1. HasProcessed(id)  -> cached response? return it, write nothing
                          (same kind only; another kind is rejected)
  2. apply()           -> ledger writes
  3. MarkProcessed(id) -> LAST statement of the unit

RACES:
  Two requests with the same id may both pass step 1. The unique key on the
  order id makes the second MarkProcessed fail with ErrDuplicateOrder, which
  rolls back the loser's writes. The loser then reads the winner's committed
  row (see shop.Service) and replays it.
*/
package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Guard checks and records executed orders.
type Guard struct {
	orders OrderStore
}

// NewGuard returns a Guard over orders.
func NewGuard(orders OrderStore) *Guard {
	return &Guard{orders: orders}
}

// Outcome is what Run returns to the caller.
type Outcome struct {
	Response []byte
	Replayed bool
}

// HasProcessed returns the executed order for id, or nil.
func (g *Guard) HasProcessed(ctx context.Context, orderID string) (*ExecutedOrder, error) {
	return g.orders.LookupOrder(ctx, orderID)
}

// MarkProcessed records id with its cached response.
func (g *Guard) MarkProcessed(ctx context.Context, orderID, kind string, response []byte) error {
	return g.orders.InsertOrder(ctx, ExecutedOrder{
		OrderID:  orderID,
		Kind:     kind,
		Response: response,
	})
}

// Run applies fn at most once per order id. fn must do all of its writes
// through the same transaction as the guard's OrderStore.
func (g *Guard) Run(ctx context.Context, orderID, kind string, fn func(ctx context.Context) ([]byte, error)) (Outcome, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Outcome{}, ErrEmptyOrderID
	}

	existing, err := g.HasProcessed(ctx, orderID)
	if err != nil {
		return Outcome{}, err
	}
	if existing != nil {
		return Replay(existing, kind)
	}

	resp, err := fn(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if err := g.MarkProcessed(ctx, orderID, kind, resp); err != nil {
		return Outcome{}, err
	}
	return Outcome{Response: resp}, nil
}

// Replay returns the cached outcome of existing, provided it was executed as
// kind.
func Replay(existing *ExecutedOrder, kind string) (Outcome, error) {
	if existing.Kind != kind {
		return Outcome{}, fmt.Errorf("%w: %s was %s, not %s",
			ErrOrderKindMismatch, existing.OrderID, existing.Kind, kind)
	}
	return Outcome{Response: existing.Response, Replayed: true}, nil
}
