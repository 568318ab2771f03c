/*
Package ledger provides the resource-accounting core of the shop.

PURPOSE:
  Every quantity the shop owns (gold, colored ml, bottled potions, storage
  capacity) is derived from one append-only log of signed deltas. There is
  no mutable "current balance" column anywhere: a balance is the SUM of the
  changes recorded for a resource.

KEY CONCEPTS IN THIS FILE (types.go):
  - Resource: a named, ledger-tracked quantity ("gold", "red_ml", ...)
  - Entry: an immutable signed change to one resource
  - ExecutedOrder: the idempotency marker for an externally supplied order id
  - Balances: resource -> current quantity

DESIGN PRINCIPLES:
  1. Immutability: entries are never updated or deleted
  2. Non-negativity: the writer refuses any batch that would drive a
     running sum below zero
  3. Idempotency: an order id is applied at most once; replays return the
     cached response
  4. Integer quantities: gold, ml and potions are whole units

USAGE:
  l := ledger.New(tx)
  err := l.Post(ctx,
      ledger.Entry{Resource: ledger.Gold, Change: -100, Context: "barrels 42"},
      ledger.Entry{Resource: ledger.RedML, Change: 500, Context: "barrels 42"},
  )

SEE ALSO:
  - store.go: persistence interfaces
  - ledger.go: the validating writer
  - balance.go: the balance aggregator
  - idempotency.go: the executed-orders guard
*/
package ledger

import "time"

// =============================================================================
// ENTRY - Immutable signed change to one resource
// =============================================================================

// Entry is one row of the ledger. ID and CreatedAt are assigned by the store
// on insert; callers fill Resource, Change and Context.
type Entry struct {
	ID        int64
	Resource  Resource
	Change    int64
	Context   string
	CreatedAt time.Time
}

// Filter narrows an entry listing. A zero Filter lists everything.
type Filter struct {
	Resources []Resource
	Limit     int
}

// =============================================================================
// EXECUTED ORDER - Idempotency marker
// =============================================================================

// ExecutedOrder records that the effects of OrderID were committed.
// Response holds the serialized result returned to the first caller; it is
// nil for operations that answer with no body.
type ExecutedOrder struct {
	OrderID   string
	Kind      string
	Response  []byte
	CreatedAt time.Time
}

// =============================================================================
// BALANCES - Computed state
// =============================================================================

// Balances maps resources to their current quantity. Missing keys are zero.
type Balances map[Resource]int64

// Get returns the balance of r, zero when absent.
func (b Balances) Get(r Resource) int64 { return b[r] }

// Sum adds the balances of the given resources.
func (b Balances) Sum(rs ...Resource) int64 {
	var total int64
	for _, r := range rs {
		total += b[r]
	}
	return total
}

// Audit is the summary reported by the inventory audit endpoint.
type Audit struct {
	Gold            int64 `json:"gold"`
	MLInBarrels     int64 `json:"ml_in_barrels"`
	NumberOfPotions int64 `json:"number_of_potions"`
}
