package shop

import (
	"fmt"

	"github.com/warp/potion-shop/ledger"
)

// CheckoutDeltas prices cart items from the sku table and returns the
// entries for a checkout: one debit per potion color sold and one gold
// credit for the revenue. Stock is enforced by ledger.Post.
func CheckoutDeltas(items []CartItem) (CheckoutResult, []ledger.Entry, error) {
	if len(items) == 0 {
		return CheckoutResult{}, nil, ErrEmptyCart
	}
	var sold [4]int64
	var res CheckoutResult
	for _, it := range items {
		p, err := LookupSKU(it.SKU)
		if err != nil {
			return CheckoutResult{}, nil, err
		}
		if it.Quantity <= 0 {
			return CheckoutResult{}, nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, it.SKU)
		}
		sold[p.Color] += it.Quantity
		res.TotalPotionsBought += it.Quantity
		res.TotalGoldPaid += it.Quantity * p.BasePrice
	}

	var entries []ledger.Entry
	for _, c := range Colors {
		if sold[c] == 0 {
			continue
		}
		entries = append(entries, ledger.Entry{
			Resource: c.PotionResource(),
			Change:   -sold[c],
			Context:  "checkout",
		})
	}
	entries = append(entries, ledger.Entry{
		Resource: ledger.Gold,
		Change:   res.TotalGoldPaid,
		Context:  "checkout",
	})
	return res, entries, nil
}
