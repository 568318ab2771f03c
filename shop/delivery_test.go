package shop_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/potion-shop/ledger"
	"github.com/warp/potion-shop/shop"
)

func sumByResource(entries []ledger.Entry) map[ledger.Resource]int64 {
	out := make(map[ledger.Resource]int64)
	for _, e := range entries {
		out[e.Resource] += e.Change
	}
	return out
}

func TestBarrelDeltas(t *testing.T) {
	// GIVEN: 2 pure red barrels of 500 ml at 100 and one mixed 1000 ml barrel at 150
	// THEN: red +1000+333, green +333, blue +333 (floored), gold -350

	third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	barrels := []shop.Barrel{
		pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 100),
		{SKU: "MIXED", MLPerBarrel: 1000, Price: 150, Quantity: 1,
			PotionType: []decimal.Decimal{third, third, third, decimal.Zero}},
	}
	barrels[0].Quantity = 2

	entries, err := shop.BarrelDeltas(barrels)
	require.NoError(t, err)
	got := sumByResource(entries)

	assert.EqualValues(t, -350, got[ledger.Gold])
	assert.EqualValues(t, 1333, got[ledger.RedML])
	assert.EqualValues(t, 333, got[ledger.GreenML])
	assert.EqualValues(t, 333, got[ledger.BlueML])
	assert.Zero(t, got[ledger.DarkML])
}

func TestBarrelDeltas_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		barrel shop.Barrel
		want   error
	}{
		{"three components", shop.Barrel{SKU: "X", MLPerBarrel: 1, Quantity: 1, PotionType: fractions(1, 0, 0, 0)[:3]}, shop.ErrInvalidBarrel},
		{"sum below one", shop.Barrel{SKU: "X", MLPerBarrel: 1, Quantity: 1, PotionType: fractions(0.5, 0.4, 0, 0)}, shop.ErrInvalidBarrel},
		{"negative fraction", shop.Barrel{SKU: "X", MLPerBarrel: 1, Quantity: 1, PotionType: fractions(1.5, -0.5, 0, 0)}, shop.ErrInvalidBarrel},
		{"zero ml", shop.Barrel{SKU: "X", MLPerBarrel: 0, Quantity: 1, PotionType: fractions(1, 0, 0, 0)}, shop.ErrInvalidBarrel},
		{"zero quantity", shop.Barrel{SKU: "X", MLPerBarrel: 100, Quantity: 0, PotionType: fractions(1, 0, 0, 0)}, shop.ErrInvalidQuantity},
		{"empty sku", shop.Barrel{MLPerBarrel: 100, Quantity: 1, PotionType: fractions(1, 0, 0, 0)}, shop.ErrInvalidBarrel},
		{"price times quantity wraps", shop.Barrel{SKU: "X", MLPerBarrel: 100, Price: math.MaxInt64/3 + 1, Quantity: 3, PotionType: fractions(1, 0, 0, 0)}, shop.ErrInvalidBarrel},
		{"quantity times ml wraps", shop.Barrel{SKU: "X", MLPerBarrel: math.MaxInt64 / 2, Quantity: 3, PotionType: fractions(1, 0, 0, 0)}, shop.ErrInvalidBarrel},
		{"quantity above max", shop.Barrel{SKU: "X", MLPerBarrel: 100, Quantity: shop.MaxBarrelQuantity + 1, PotionType: fractions(1, 0, 0, 0)}, shop.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shop.BarrelDeltas([]shop.Barrel{tt.barrel})
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, shop.IsClientError(err))
		})
	}
}

func TestBarrelDeltas_LimitsAlwaysCharge(t *testing.T) {
	// GIVEN: a full delivery with every line at the upper bounds
	// THEN: gold is a debit of the exact total, ml a credit

	barrels := make([]shop.Barrel, shop.MaxOrderLines)
	for i := range barrels {
		barrels[i] = shop.Barrel{
			SKU: "MAX", MLPerBarrel: shop.MaxMLPerBarrel, Price: shop.MaxBarrelPrice,
			Quantity: shop.MaxBarrelQuantity, PotionType: fractions(0, 0, 0, 1),
		}
	}

	entries, err := shop.BarrelDeltas(barrels)
	require.NoError(t, err)
	got := sumByResource(entries)

	total := int64(shop.MaxOrderLines) * shop.MaxBarrelPrice * shop.MaxBarrelQuantity
	assert.Equal(t, -total, got[ledger.Gold])
	assert.Equal(t, int64(shop.MaxOrderLines)*shop.MaxMLPerBarrel*shop.MaxBarrelQuantity, got[ledger.DarkML])
}

func TestBarrelDeltas_TooManyLines(t *testing.T) {
	barrels := make([]shop.Barrel, shop.MaxOrderLines+1)
	for i := range barrels {
		barrels[i] = pureBarrel("SMALL_RED_BARREL", shop.Red, 500, 1)
	}
	_, err := shop.BarrelDeltas(barrels)
	assert.ErrorIs(t, err, shop.ErrCatalogTooLarge)
}

func TestBottleDeltas(t *testing.T) {
	entries, err := shop.BottleDeltas([]shop.PotionMix{
		{PotionType: []int64{100, 0, 0, 0}, Quantity: 3},
		{PotionType: []int64{0, 0, 0, 100}, Quantity: 1},
		{PotionType: []int64{100, 0, 0, 0}, Quantity: 2},
	})
	require.NoError(t, err)
	got := sumByResource(entries)

	assert.EqualValues(t, -250, got[ledger.RedML])
	assert.EqualValues(t, -50, got[ledger.DarkML])
	assert.EqualValues(t, 5, got[ledger.RedPotion])
	assert.EqualValues(t, 1, got[ledger.DarkPotion])
	assert.Zero(t, got[ledger.GreenPotion])
}

func TestBottleDeltas_Invalid(t *testing.T) {
	tests := []struct {
		name string
		mix  shop.PotionMix
		want error
	}{
		{"three components", shop.PotionMix{PotionType: []int64{100, 0, 0}, Quantity: 1}, shop.ErrInvalidMix},
		{"five components", shop.PotionMix{PotionType: []int64{100, 0, 0, 0, 0}, Quantity: 1}, shop.ErrInvalidMix},
		{"sum 99", shop.PotionMix{PotionType: []int64{99, 0, 0, 0}, Quantity: 1}, shop.ErrInvalidMix},
		{"sum 101", shop.PotionMix{PotionType: []int64{100, 1, 0, 0}, Quantity: 1}, shop.ErrInvalidMix},
		{"no dominant color", shop.PotionMix{PotionType: []int64{50, 50, 0, 0}, Quantity: 1}, shop.ErrInvalidMix},
		{"zero quantity", shop.PotionMix{PotionType: []int64{0, 100, 0, 0}, Quantity: 0}, shop.ErrInvalidQuantity},
		{"huge quantity", shop.PotionMix{PotionType: []int64{0, 100, 0, 0}, Quantity: shop.MaxMixQuantity + 1}, shop.ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shop.BottleDeltas([]shop.PotionMix{tt.mix})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckoutDeltas(t *testing.T) {
	res, entries, err := shop.CheckoutDeltas([]shop.CartItem{
		{SKU: "RED_POTION_0", Quantity: 2},
		{SKU: "GREEN_POTION_0", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, shop.CheckoutResult{TotalPotionsBought: 5, TotalGoldPaid: 280}, res)

	got := sumByResource(entries)
	assert.EqualValues(t, -2, got[ledger.RedPotion])
	assert.EqualValues(t, -3, got[ledger.GreenPotion])
	assert.EqualValues(t, 280, got[ledger.Gold])
	assert.Len(t, entries, 3)

	_, _, err = shop.CheckoutDeltas(nil)
	assert.ErrorIs(t, err, shop.ErrEmptyCart)
}

func TestCapacityDeltas(t *testing.T) {
	entries, err := shop.CapacityDeltas(shop.CapacityPlan{PotionCapacity: 1, MLCapacity: 2})
	require.NoError(t, err)
	got := sumByResource(entries)
	assert.EqualValues(t, -3000, got[ledger.Gold])
	assert.EqualValues(t, 1, got[ledger.PotionCapacity])
	assert.EqualValues(t, 2, got[ledger.MLCapacity])

	_, err = shop.CapacityDeltas(shop.CapacityPlan{})
	assert.ErrorIs(t, err, shop.ErrInvalidCapacity)
	_, err = shop.CapacityDeltas(shop.CapacityPlan{MLCapacity: -1})
	assert.ErrorIs(t, err, shop.ErrInvalidCapacity)
	_, err = shop.CapacityDeltas(shop.CapacityPlan{MLCapacity: shop.MaxCapacityPurchase + 1})
	assert.ErrorIs(t, err, shop.ErrInvalidCapacity)
}
