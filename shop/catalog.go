/*
catalog.go - Customer catalog and the sku price table

PURPOSE:
  Builds the sale catalog from potion balances. Deterministic: same
  balances, same catalog. Also resolves skus to colors and base prices for
  carts and checkout.

PRICING:
  price = base(color)                              stock >= threshold
  price = min(base(color) + LowStockPriceBump, Max) stock <  threshold
*/
package shop

import (
	"fmt"
	"strings"
)

// Potion describes one sellable sku.
type Potion struct {
	SKU       string
	Name      string
	Color     Color
	BasePrice int64
}

var potions = []Potion{
	{SKU: "RED_POTION_0", Name: "Red Potion", Color: Red, BasePrice: 50},
	{SKU: "GREEN_POTION_0", Name: "Green Potion", Color: Green, BasePrice: 60},
	{SKU: "BLUE_POTION_0", Name: "Blue Potion", Color: Blue, BasePrice: 70},
	{SKU: "DARK_POTION_0", Name: "Dark Potion", Color: Dark, BasePrice: 90},
}

// LookupSKU resolves a sku, case-insensitively.
func LookupSKU(sku string) (Potion, error) {
	key := strings.ToUpper(strings.TrimSpace(sku))
	for _, p := range potions {
		if p.SKU == key {
			return p, nil
		}
	}
	return Potion{}, fmt.Errorf("%w: %q", ErrUnknownSKU, sku)
}

// PotionFor returns the sellable potion of color c.
func PotionFor(c Color) Potion {
	return potions[c]
}

// CatalogEntry is one line of the customer catalog.
type CatalogEntry struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity"`
	Price      int64   `json:"price"`
	PotionType []int64 `json:"potion_type"`
}

// PriceFor applies the low-stock bump to base.
func PriceFor(base, stock int64) int64 {
	if stock < LowStockPriceBumpThreshold {
		return min(base+LowStockPriceBump, MaxPrice)
	}
	return base
}

// BuildCatalog lists every color with positive stock, in red, green, blue,
// dark order.
func BuildCatalog(inv Inventory) []CatalogEntry {
	out := make([]CatalogEntry, 0, len(potions))
	for _, p := range potions {
		stock := inv.Potions[p.Color]
		if stock <= 0 {
			continue
		}
		out = append(out, CatalogEntry{
			SKU:        p.SKU,
			Name:       p.Name,
			Quantity:   min(stock, MaxCatalogQuantity),
			Price:      PriceFor(p.BasePrice, stock),
			PotionType: PurePotionType(p.Color),
		})
		if len(out) == MaxCatalogEntries {
			break
		}
	}
	return out
}
