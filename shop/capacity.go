/*
capacity.go - Storage capacity

PURPOSE:
  Capacity is tracked as two more ledger resources, counted in units:
    ml_capacity:     1 unit = MLPerCapacityUnit ml
    potion_capacity: 1 unit = PotionsPerCapacityUnit potions
  Each unit costs CapacityUnitPrice gold. Reset grants one unit of each.

PLAN POLICY:
  Potions first, then ml. Recommend one unit of a kind when its usage is at
  or above 80% of the limit and the remaining gold still covers it.
*/
package shop

import (
	"fmt"

	"github.com/warp/potion-shop/ledger"
)

// PlanCapacity recommends extra storage units.
func PlanCapacity(inv Inventory) CapacityPlan {
	var plan CapacityPlan
	budget := inv.Gold

	if nearlyFull(inv.TotalPotions(), inv.MaxPotions()) && budget >= CapacityUnitPrice {
		plan.PotionCapacity = 1
		budget -= CapacityUnitPrice
	}
	if nearlyFull(inv.TotalML(), inv.MaxML()) && budget >= CapacityUnitPrice {
		plan.MLCapacity = 1
	}
	return plan
}

func nearlyFull(used, limit int64) bool {
	return used*5 >= limit*4
}

// CapacityDeltas validates a purchase and returns its entries. Gold
// coverage is enforced by ledger.Post.
func CapacityDeltas(plan CapacityPlan) ([]ledger.Entry, error) {
	for _, n := range []int64{plan.PotionCapacity, plan.MLCapacity} {
		if n < 0 || n > MaxCapacityPurchase {
			return nil, fmt.Errorf("%w: %d units, max %d", ErrInvalidCapacity, n, MaxCapacityPurchase)
		}
	}
	units := plan.PotionCapacity + plan.MLCapacity
	if units == 0 {
		return nil, fmt.Errorf("%w: nothing to buy", ErrInvalidCapacity)
	}
	return []ledger.Entry{
		{Resource: ledger.Gold, Change: -units * CapacityUnitPrice, Context: "capacity purchase"},
		{Resource: ledger.PotionCapacity, Change: plan.PotionCapacity, Context: "capacity purchase"},
		{Resource: ledger.MLCapacity, Change: plan.MLCapacity, Context: "capacity purchase"},
	}, nil
}
