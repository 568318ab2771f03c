/*
store.go - Persistence interfaces for the ledger and the idempotency table

PURPOSE:
  Defines the boundary between accounting logic and the database. Stores
  persist entries and executed orders; they do not validate balances.

KEY INTERFACES:
  ResourceStore: append-only entries plus aggregation
  OrderStore:    executed-order markers (insert-or-fail)
  Tx:            both, scoped to one atomic unit

APPEND-ONLY CONTRACT:
  - Append(): the only write on entries
  - NO Update() or Delete() methods exist
  - Corrections are new entries with the opposite sign

AGGREGATION:
  Sum() is part of the store contract so an implementation can answer with a
  live SUM(change) or with a materialized snapshot without touching the
  planners. Both shipped stores compute it live.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite and PostgreSQL
  - store/memory: in-memory for tests
*/
package ledger

import "context"

// ResourceStore handles persistence of ledger entries.
// IMPORTANT: append-only. No Update, no Delete.
type ResourceStore interface {
	// Append persists entries in order, assigning ID and CreatedAt.
	Append(ctx context.Context, entries []Entry) error

	// Sum returns SUM(change) for each requested resource. Resources with no
	// rows are present with a zero value.
	Sum(ctx context.Context, resources []Resource) (Balances, error)

	// Entries lists entries newest first.
	Entries(ctx context.Context, filter Filter) ([]Entry, error)
}

// OrderStore persists idempotency markers.
type OrderStore interface {
	// LookupOrder returns the executed order or nil when it was never applied.
	LookupOrder(ctx context.Context, orderID string) (*ExecutedOrder, error)

	// InsertOrder records an order. It returns ErrDuplicateOrder when the id
	// already exists; callers must not pre-check and rely on this instead.
	InsertOrder(ctx context.Context, order ExecutedOrder) error
}

// Tx is the view of the store inside one atomic unit.
type Tx interface {
	ResourceStore
	OrderStore
}
