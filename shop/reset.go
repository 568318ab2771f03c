package shop

import "github.com/warp/potion-shop/ledger"

// StartingBalances is the state right after a reset.
func StartingBalances() ledger.Balances {
	b := make(ledger.Balances, len(ledger.AllResources))
	for _, r := range ledger.AllResources {
		b[r] = 0
	}
	b[ledger.Gold] = StartingGold
	b[ledger.MLCapacity] = 1
	b[ledger.PotionCapacity] = 1
	return b
}

// ResetDeltas returns the corrective entries that move current to the
// starting balances. History stays in the ledger.
func ResetDeltas(current ledger.Balances) []ledger.Entry {
	target := StartingBalances()
	var entries []ledger.Entry
	for _, r := range ledger.AllResources {
		if d := target.Get(r) - current.Get(r); d != 0 {
			entries = append(entries, ledger.Entry{Resource: r, Change: d, Context: "reset"})
		}
	}
	return entries
}
