/*
balance.go - Balance aggregation

PURPOSE:
  Answers "how much X do we have?" by summing ledger changes. There is no
  cache: each call goes to the store, so a reader inside a transaction sees
  exactly the committed rows plus its own writes.

AUDIT:
  gold              = SUM(gold)
  ml_in_barrels     = SUM(red_ml, green_ml, blue_ml, dark_ml)
  number_of_potions = SUM(red_potion, green_potion, blue_potion, dark_potion)
*/
package ledger

import "context"

// Aggregator computes balances from a ResourceStore.
type Aggregator struct {
	Store ResourceStore
}

// NewAggregator returns an Aggregator reading from store.
func NewAggregator(store ResourceStore) *Aggregator {
	return &Aggregator{Store: store}
}

// BalanceOf returns the current quantity of r, zero when no rows exist.
func (a *Aggregator) BalanceOf(ctx context.Context, r Resource) (int64, error) {
	b, err := a.BalancesOf(ctx, r)
	if err != nil {
		return 0, err
	}
	return b.Get(r), nil
}

// BalancesOf returns the current quantity of every requested resource.
func (a *Aggregator) BalancesOf(ctx context.Context, rs ...Resource) (Balances, error) {
	for _, r := range rs {
		if !r.Valid() {
			return nil, &unknownResourceError{r}
		}
	}
	out, err := a.Store.Sum(ctx, rs)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = make(Balances, len(rs))
	}
	for _, r := range rs {
		if _, ok := out[r]; !ok {
			out[r] = 0
		}
	}
	return out, nil
}

// Snapshot returns the balance of every tracked resource.
func (a *Aggregator) Snapshot(ctx context.Context) (Balances, error) {
	return a.BalancesOf(ctx, AllResources...)
}

// Audit summarizes gold, total ml and total potions.
func (a *Aggregator) Audit(ctx context.Context) (Audit, error) {
	b, err := a.Snapshot(ctx)
	if err != nil {
		return Audit{}, err
	}
	return Audit{
		Gold:            b.Get(Gold),
		MLInBarrels:     b.Sum(MLResources...),
		NumberOfPotions: b.Sum(PotionResources...),
	}, nil
}

type unknownResourceError struct{ r Resource }

func (e *unknownResourceError) Error() string { return "unknown resource: " + string(e.r) }
func (e *unknownResourceError) Unwrap() error { return ErrUnknownResource }
