/*
purchase.go - Barrel purchase planner

PURPOSE:
  Decides which wholesale barrel to buy this tick. Read-only: the plan is
  applied later through DeliverBarrels.

ALGORITHM:
  1. Colors (red, green, blue) with fewer than RestockThreshold potions are
     eligible. None eligible -> empty plan.
  2. Pick one eligible color at random.
  3. Keep pure barrels of that color (fraction exactly 1.0) that the
     seller still has in stock.
  4. Cheapest wins; first offer on ties.
  5. Buy 1 if price <= gold and total ml + ml_per_barrel <= maxML.
*/
package shop

// PlanBarrels returns at most one order.
func PlanBarrels(inv Inventory, catalog []Barrel, maxML int64, rng Rand) []BarrelOrder {
	var eligible []Color
	for _, c := range restockColors {
		if inv.Potions[c] < RestockThreshold {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return []BarrelOrder{}
	}
	color := pick(rng, eligible)

	var best *Barrel
	for i := range catalog {
		b := &catalog[i]
		if !b.IsPure(color) || b.Quantity < 1 {
			continue
		}
		if best == nil || b.Price < best.Price {
			best = b
		}
	}
	if best == nil {
		return []BarrelOrder{}
	}
	if best.Price > inv.Gold {
		return []BarrelOrder{}
	}
	if inv.TotalML()+best.MLPerBarrel > maxML {
		return []BarrelOrder{}
	}
	return []BarrelOrder{{SKU: best.SKU, Quantity: 1}}
}
