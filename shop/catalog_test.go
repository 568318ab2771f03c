package shop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/potion-shop/shop"
)

func TestBuildCatalog_OnlyPositiveStock(t *testing.T) {
	inv := shop.Inventory{Potions: [4]int64{10, 0, 3, 0}}

	cat := shop.BuildCatalog(inv)
	require.Len(t, cat, 2)

	assert.Equal(t, shop.CatalogEntry{
		SKU: "RED_POTION_0", Name: "Red Potion", Quantity: 10, Price: 50,
		PotionType: []int64{100, 0, 0, 0},
	}, cat[0])
	assert.Equal(t, "BLUE_POTION_0", cat[1].SKU)
	assert.EqualValues(t, 80, cat[1].Price, "low stock bump")
}

func TestBuildCatalog_Properties(t *testing.T) {
	// For any stock levels: at most 6 entries, no zero stock, vectors sum to 100.
	levels := []int64{-2, 0, 1, 3, 4, 5, 20000}
	for _, r := range levels {
		for _, g := range levels {
			for _, b := range levels {
				for _, d := range levels {
					inv := shop.Inventory{Potions: [4]int64{r, g, b, d}}
					cat := shop.BuildCatalog(inv)
					assert.LessOrEqual(t, len(cat), shop.MaxCatalogEntries)
					for _, e := range cat {
						assert.Positive(t, e.Quantity)
						assert.LessOrEqual(t, e.Quantity, int64(shop.MaxCatalogQuantity))
						assert.LessOrEqual(t, e.Price, int64(shop.MaxPrice))
						var sum int64
						for _, v := range e.PotionType {
							sum += v
						}
						assert.EqualValues(t, 100, sum)
					}
				}
			}
		}
	}
}

func TestPriceFor(t *testing.T) {
	assert.EqualValues(t, 60, shop.PriceFor(60, shop.LowStockPriceBumpThreshold))
	assert.EqualValues(t, 70, shop.PriceFor(60, shop.LowStockPriceBumpThreshold-1))
	assert.EqualValues(t, shop.MaxPrice, shop.PriceFor(495, 1))
}

func TestLookupSKU(t *testing.T) {
	p, err := shop.LookupSKU("green_potion_0")
	require.NoError(t, err)
	assert.Equal(t, shop.Green, p.Color)
	assert.EqualValues(t, 60, p.BasePrice)

	_, err = shop.LookupSKU("PURPLE_POTION_0")
	assert.ErrorIs(t, err, shop.ErrUnknownSKU)
	assert.True(t, shop.IsClientError(err))
}
