package shop_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/potion-shop/shop"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fixedRand always picks index n (clamped to the choice count).
type fixedRand struct{ n int }

func (f fixedRand) IntN(n int) int { return min(f.n, n-1) }

func fractions(r, g, b, d float64) []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromFloat(r), decimal.NewFromFloat(g),
		decimal.NewFromFloat(b), decimal.NewFromFloat(d),
	}
}

func pureBarrel(sku string, c shop.Color, ml, price int64) shop.Barrel {
	return shop.Barrel{SKU: sku, MLPerBarrel: ml, PotionType: shop.PureFractions(c), Price: price, Quantity: 10}
}

// stocked has RestockThreshold potions of every color, so nothing is eligible.
func stocked() shop.Inventory {
	inv := shop.Inventory{Gold: 1000, MLCapacity: 1, PotionCapacity: 1}
	for _, c := range shop.Colors {
		inv.Potions[c] = shop.RestockThreshold
	}
	return inv
}

// =============================================================================
// PURCHASE PLANNER
// =============================================================================

func TestPlanBarrels_Unaffordable_Empty(t *testing.T) {
	// GIVEN: 50 gold, red is low, cheapest pure red costs 100
	// THEN: no order

	inv := stocked()
	inv.Gold = 50
	inv.Potions[shop.Red] = 0
	catalog := []shop.Barrel{
		pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 100),
		pureBarrel("MEDIUM_RED_BARREL", shop.Red, 2500, 250),
	}

	plan := shop.PlanBarrels(inv, catalog, inv.MaxML(), fixedRand{})
	assert.Empty(t, plan)
}

func TestPlanBarrels_PicksCheapestPure(t *testing.T) {
	inv := stocked()
	inv.Potions[shop.Red] = 2
	catalog := []shop.Barrel{
		pureBarrel("MEDIUM_RED_BARREL", shop.Red, 2500, 250),
		{SKU: "MIXED", MLPerBarrel: 500, PotionType: fractions(0.5, 0.5, 0, 0), Price: 10, Quantity: 5},
		pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 100),
		pureBarrel("OTHER_SMALL_RED", shop.Red, 500, 100),
		pureBarrel("SMALL_GREEN_BARREL", shop.Green, 500, 20),
	}

	plan := shop.PlanBarrels(inv, catalog, inv.MaxML(), fixedRand{})
	require.Len(t, plan, 1)
	assert.Equal(t, shop.BarrelOrder{SKU: "SMALL_RED_BARREL", Quantity: 1}, plan[0])
}

func TestPlanBarrels_NothingLow_Empty(t *testing.T) {
	inv := stocked()
	plan := shop.PlanBarrels(inv, []shop.Barrel{pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 1)}, inv.MaxML(), fixedRand{})
	assert.Empty(t, plan)
}

func TestPlanBarrels_DarkIsNeverRestocked(t *testing.T) {
	inv := stocked()
	inv.Potions[shop.Dark] = 0
	plan := shop.PlanBarrels(inv, []shop.Barrel{pureBarrel("SMALL_DARK_BARREL", shop.Dark, 500, 1)}, inv.MaxML(), fixedRand{})
	assert.Empty(t, plan)
}

func TestPlanBarrels_OverCapacity_Empty(t *testing.T) {
	inv := stocked()
	inv.Potions[shop.Blue] = 0
	inv.ML[shop.Green] = 9800

	plan := shop.PlanBarrels(inv, []shop.Barrel{pureBarrel("SMALL_BLUE_BARREL", shop.Blue, 500, 100)}, inv.MaxML(), fixedRand{})
	assert.Empty(t, plan)

	inv.ML[shop.Green] = 9500
	plan = shop.PlanBarrels(inv, []shop.Barrel{pureBarrel("SMALL_BLUE_BARREL", shop.Blue, 500, 100)}, inv.MaxML(), fixedRand{})
	assert.Len(t, plan, 1, "exactly at capacity is allowed")
}

func TestPlanBarrels_SoldOutOffersSkipped(t *testing.T) {
	inv := stocked()
	inv.Potions[shop.Red] = 0
	cheap := pureBarrel("CHEAP_RED", shop.Red, 500, 10)
	cheap.Quantity = 0

	plan := shop.PlanBarrels(inv, []shop.Barrel{cheap, pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 100)}, inv.MaxML(), fixedRand{})
	require.Len(t, plan, 1)
	assert.Equal(t, "SMALL_RED_BARREL", plan[0].SKU)
}

func TestPlanBarrels_RandomPickIsInjected(t *testing.T) {
	// GIVEN: red, green and blue all low
	// WHEN: the random source picks index 1
	// THEN: the green barrel is bought

	inv := stocked()
	for _, c := range []shop.Color{shop.Red, shop.Green, shop.Blue} {
		inv.Potions[c] = 0
	}
	catalog := []shop.Barrel{
		pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 100),
		pureBarrel("SMALL_GREEN_BARREL", shop.Green, 500, 100),
		pureBarrel("SMALL_BLUE_BARREL", shop.Blue, 500, 120),
	}

	plan := shop.PlanBarrels(inv, catalog, inv.MaxML(), fixedRand{n: 1})
	require.Len(t, plan, 1)
	assert.Equal(t, "SMALL_GREEN_BARREL", plan[0].SKU)

	plan = shop.PlanBarrels(inv, catalog, inv.MaxML(), fixedRand{n: 2})
	require.Len(t, plan, 1)
	assert.Equal(t, "SMALL_BLUE_BARREL", plan[0].SKU)
}

func TestPlanBarrels_NeverExceedsGoldOrCapacity(t *testing.T) {
	rng := shop.NewRand(7)
	catalog := []shop.Barrel{
		pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 100),
		pureBarrel("SMALL_GREEN_BARREL", shop.Green, 500, 100),
		pureBarrel("SMALL_BLUE_BARREL", shop.Blue, 500, 120),
		pureBarrel("LARGE_BLUE_BARREL", shop.Blue, 10000, 400),
	}
	prices := map[string]shop.Barrel{}
	for _, b := range catalog {
		prices[b.SKU] = b
	}

	for gold := int64(0); gold <= 500; gold += 25 {
		for ml := int64(0); ml <= 10000; ml += 1250 {
			inv := shop.Inventory{Gold: gold, MLCapacity: 1}
			inv.ML[shop.Red] = ml
			for _, o := range shop.PlanBarrels(inv, catalog, inv.MaxML(), rng) {
				b := prices[o.SKU]
				assert.LessOrEqual(t, b.Price, gold)
				assert.LessOrEqual(t, ml+b.MLPerBarrel, inv.MaxML())
			}
		}
	}
}

// =============================================================================
// BOTTLING PLANNER
// =============================================================================

func TestPlanBottles_RedFromFiveHundredML(t *testing.T) {
	inv := stocked()
	inv.ML[shop.Red] = 500
	inv.Potions[shop.Red] = 0

	plan := shop.PlanBottles(inv, fixedRand{})
	require.Len(t, plan, 1)
	assert.Equal(t, []int64{100, 0, 0, 0}, plan[0].PotionType)
	assert.EqualValues(t, 10, plan[0].Quantity)
}

func TestPlanBottles_CappedPerTick(t *testing.T) {
	inv := stocked()
	inv.ML[shop.Blue] = 5000
	inv.Potions[shop.Blue] = 1

	plan := shop.PlanBottles(inv, fixedRand{})
	require.Len(t, plan, 1)
	assert.EqualValues(t, shop.MaxBottlesPerTick, plan[0].Quantity)
	assert.Equal(t, []int64{0, 0, 100, 0}, plan[0].PotionType)
}

func TestPlanBottles_DarkFallback(t *testing.T) {
	// GIVEN: red/green/blue all stocked, 120 dark ml
	// THEN: exactly one dark potion

	inv := stocked()
	inv.ML[shop.Red] = 1000
	inv.ML[shop.Dark] = 120

	plan := shop.PlanBottles(inv, fixedRand{})
	require.Len(t, plan, 1)
	assert.Equal(t, []int64{0, 0, 0, 100}, plan[0].PotionType)
	assert.EqualValues(t, 1, plan[0].Quantity)
}

func TestPlanBottles_NotEnoughML_Empty(t *testing.T) {
	inv := stocked()
	inv.Potions[shop.Green] = 0
	inv.ML[shop.Green] = 49
	inv.ML[shop.Dark] = 49

	assert.Empty(t, shop.PlanBottles(inv, fixedRand{}))
}

func TestPlanBottles_NeverExceedsAvailableML(t *testing.T) {
	rng := shop.NewRand(11)
	for ml := int64(0); ml <= 1200; ml += 35 {
		inv := shop.Inventory{}
		for _, c := range shop.Colors {
			inv.ML[c] = ml + int64(c)*17
		}
		for _, mix := range shop.PlanBottles(inv, rng) {
			for _, c := range shop.Colors {
				need := mix.Quantity * shop.BottleVolume * mix.PotionType[c] / 100
				assert.LessOrEqual(t, need, inv.ML[c])
			}
		}
	}
}

// =============================================================================
// CAPACITY PLANNER
// =============================================================================

func TestPlanCapacity(t *testing.T) {
	tests := []struct {
		name string
		inv  shop.Inventory
		want shop.CapacityPlan
	}{
		{
			name: "empty shop buys nothing",
			inv:  shop.Inventory{Gold: 5000, MLCapacity: 1, PotionCapacity: 1},
		},
		{
			name: "potions nearly full",
			inv:  shop.Inventory{Gold: 1500, MLCapacity: 1, PotionCapacity: 1, Potions: [4]int64{40}},
			want: shop.CapacityPlan{PotionCapacity: 1},
		},
		{
			name: "both full, gold for one",
			inv:  shop.Inventory{Gold: 1999, MLCapacity: 1, PotionCapacity: 1, Potions: [4]int64{50}, ML: [4]int64{8000}},
			want: shop.CapacityPlan{PotionCapacity: 1},
		},
		{
			name: "both full, gold for two",
			inv:  shop.Inventory{Gold: 2000, MLCapacity: 1, PotionCapacity: 1, Potions: [4]int64{50}, ML: [4]int64{8000}},
			want: shop.CapacityPlan{PotionCapacity: 1, MLCapacity: 1},
		},
		{
			name: "full but broke",
			inv:  shop.Inventory{Gold: 999, MLCapacity: 1, PotionCapacity: 1, Potions: [4]int64{50}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shop.PlanCapacity(tt.inv))
		})
	}
}
