/*
ledger.go - Validating writer over a ResourceStore

PURPOSE:
  The Ledger is the only code path that writes entries. It enforces what the
  storage layer does not: every resource is known, zero changes are dropped,
  and no running sum goes below zero.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. NON-NEGATIVE: after each entry of a batch is applied in order, the
     running balance of its resource is >= 0
  3. ALL-OR-NOTHING: a rejected batch writes nothing

ATOMICITY:
  Post reads balances and then appends. Run it against the Tx of a store
  transaction so the read and the write belong to the same unit; a Ledger
  built on a bare store gives no isolation guarantees.

EXAMPLE FLOW (bottling 10 red potions):
  red_ml:     [+500, -500]  = 0
  red_potion: [+10]         = 10
*/
package ledger

import (
	"context"
	"fmt"
)

// Ledger validates and appends entries.
type Ledger struct {
	store ResourceStore
}

// New returns a Ledger writing through store.
func New(store ResourceStore) *Ledger {
	return &Ledger{store: store}
}

// Post validates entries and appends the non-zero ones.
// It returns *InsufficientBalanceError when a resource would go negative.
func (l *Ledger) Post(ctx context.Context, entries ...Entry) error {
	var batch []Entry
	var touched []Resource
	debited := make(map[Resource]bool)
	seen := make(map[Resource]bool)
	for _, e := range entries {
		if !e.Resource.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownResource, e.Resource)
		}
		if e.Change == 0 {
			continue
		}
		if e.Change < 0 {
			debited[e.Resource] = true
		}
		if !seen[e.Resource] {
			seen[e.Resource] = true
			touched = append(touched, e.Resource)
		}
		batch = append(batch, e)
	}
	if len(batch) == 0 {
		return nil
	}

	if len(debited) > 0 {
		var check []Resource
		for _, r := range touched {
			if debited[r] {
				check = append(check, r)
			}
		}
		current, err := l.store.Sum(ctx, check)
		if err != nil {
			return fmt.Errorf("read balances: %w", err)
		}
		running := make(Balances, len(check))
		for _, r := range check {
			running[r] = current.Get(r)
		}
		for _, e := range batch {
			if !debited[e.Resource] {
				continue
			}
			next := running[e.Resource] + e.Change
			if next < 0 {
				return &InsufficientBalanceError{
					Resource:  e.Resource,
					Available: running[e.Resource],
					Requested: -e.Change,
				}
			}
			running[e.Resource] = next
		}
	}

	return l.store.Append(ctx, batch)
}

// Entries returns recent entries, newest first. Read-only.
func (l *Ledger) Entries(ctx context.Context, filter Filter) ([]Entry, error) {
	return l.store.Entries(ctx, filter)
}
