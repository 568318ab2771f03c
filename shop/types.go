/*
Package shop implements the potion shop on top of the ledger core.

PURPOSE:
  The ledger package knows about resources and signed deltas. This package
  knows what they mean: barrels carry colored ml, bottling turns 50 ml into
  one potion, customers pay gold for potions. It owns the two planners, the
  catalog pricing, the delivery and checkout arithmetic, and the Service
  that runs them inside store transactions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Color: red, green, blue, dark, with their ml and potion resources
  - Barrel / BarrelOrder: wholesale offers and purchase plans
  - PotionMix: a bottling plan or delivery line
  - Inventory: a typed view over ledger balances for the planners
  - Cart / CartItem: the customer aggregate

SEE ALSO:
  - purchase.go, bottling.go: planners
  - catalog.go: pricing
  - delivery.go, checkout.go, capacity.go, reset.go: ledger deltas
  - service.go: transactional orchestration
*/
package shop

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/potion-shop/ledger"
)

// =============================================================================
// POLICY CONSTANTS
// =============================================================================

const (
	// RestockThreshold is the potion count under which a color needs stock.
	RestockThreshold = 5

	// BottleVolume is the ml consumed by one potion.
	BottleVolume = 50

	// MaxBottlesPerTick caps a single bottling plan.
	MaxBottlesPerTick = 10

	// LowStockPriceBumpThreshold is the stock level under which catalog
	// prices get LowStockPriceBump added.
	LowStockPriceBumpThreshold = 4
	LowStockPriceBump          = 10
	MaxPrice                   = 500

	MaxCatalogEntries  = 6
	MaxCatalogQuantity = 10000

	// MaxOrderLines bounds wholesale catalogs and delivery payloads.
	MaxOrderLines = 100

	// MaxMixQuantity bounds one bottling delivery line.
	MaxMixQuantity = 10000

	// Barrel line bounds. MaxOrderLines lines at these limits keep every
	// gold and ml sum far inside int64.
	MaxBarrelQuantity = 10000
	MaxBarrelPrice    = 1_000_000
	MaxMLPerBarrel    = 1_000_000

	// MaxCartQuantity bounds the merged quantity of one cart line.
	MaxCartQuantity = 10000

	StartingGold = 100

	MLPerCapacityUnit      = 10000
	PotionsPerCapacityUnit = 50
	CapacityUnitPrice      = 1000
	MaxCapacityPurchase    = 10
)

// =============================================================================
// COLORS
// =============================================================================

// Color indexes the four-element potion_type vectors.
type Color int

const (
	Red Color = iota
	Green
	Blue
	Dark
)

// Colors lists every color in vector order.
var Colors = []Color{Red, Green, Blue, Dark}

// restockColors are the colors the planners restock; dark is filler only.
var restockColors = []Color{Red, Green, Blue}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	case Dark:
		return "dark"
	}
	return "unknown"
}

// MLResource is the ledger pool holding this color's liquid.
func (c Color) MLResource() ledger.Resource { return ledger.MLResources[c] }

// PotionResource is the ledger count of bottled potions of this color.
func (c Color) PotionResource() ledger.Resource { return ledger.PotionResources[c] }

// PurePotionType returns the 100%-c mix vector.
func PurePotionType(c Color) []int64 {
	v := make([]int64, len(Colors))
	v[c] = 100
	return v
}

// =============================================================================
// WHOLESALE
// =============================================================================

// Barrel is a wholesale offer or a delivered barrel line. PotionType holds
// the fraction of each color and must sum to 1.0.
type Barrel struct {
	SKU         string            `json:"sku"`
	MLPerBarrel int64             `json:"ml_per_barrel"`
	PotionType  []decimal.Decimal `json:"potion_type"`
	Price       int64             `json:"price"`
	Quantity    int64             `json:"quantity"`
}

// IsPure reports whether the barrel is 100% color c.
func (b Barrel) IsPure(c Color) bool {
	return int(c) < len(b.PotionType) && b.PotionType[c].Equal(decimal.NewFromInt(1))
}

// PureFractions returns the fraction vector of a 100%-c barrel.
func PureFractions(c Color) []decimal.Decimal {
	v := make([]decimal.Decimal, len(Colors))
	for i := range v {
		v[i] = decimal.Zero
	}
	v[c] = decimal.NewFromInt(1)
	return v
}

// BarrelOrder is one line of a purchase plan.
type BarrelOrder struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// PotionMix is one line of a bottling plan or bottling delivery.
// PotionType holds percentages and must sum to 100.
type PotionMix struct {
	PotionType []int64 `json:"potion_type"`
	Quantity   int64   `json:"quantity"`
}

// CapacityPlan counts extra storage units to buy.
type CapacityPlan struct {
	PotionCapacity int64 `json:"potion_capacity"`
	MLCapacity     int64 `json:"ml_capacity"`
}

// CheckoutResult is the cached response of a checkout.
type CheckoutResult struct {
	TotalPotionsBought int64 `json:"total_potions_bought"`
	TotalGoldPaid      int64 `json:"total_gold_paid"`
}

// =============================================================================
// INVENTORY - Typed view over balances
// =============================================================================

// Inventory is the planners' input, built from one balance snapshot.
type Inventory struct {
	Gold           int64
	ML             [4]int64
	Potions        [4]int64
	MLCapacity     int64 // units
	PotionCapacity int64 // units
}

// InventoryFrom reads an Inventory out of ledger balances.
func InventoryFrom(b ledger.Balances) Inventory {
	inv := Inventory{
		Gold:           b.Get(ledger.Gold),
		MLCapacity:     b.Get(ledger.MLCapacity),
		PotionCapacity: b.Get(ledger.PotionCapacity),
	}
	for _, c := range Colors {
		inv.ML[c] = b.Get(c.MLResource())
		inv.Potions[c] = b.Get(c.PotionResource())
	}
	return inv
}

// TotalML sums ml across all colors.
func (inv Inventory) TotalML() int64 {
	var t int64
	for _, v := range inv.ML {
		t += v
	}
	return t
}

// TotalPotions sums potions across all colors.
func (inv Inventory) TotalPotions() int64 {
	var t int64
	for _, v := range inv.Potions {
		t += v
	}
	return t
}

// MaxML is the ml storage limit given the purchased units.
func (inv Inventory) MaxML() int64 { return inv.MLCapacity * MLPerCapacityUnit }

// MaxPotions is the potion storage limit given the purchased units.
func (inv Inventory) MaxPotions() int64 { return inv.PotionCapacity * PotionsPerCapacityUnit }

// =============================================================================
// CARTS
// =============================================================================

// Cart is an open customer cart.
type Cart struct {
	ID             int64     `json:"cart_id"`
	CustomerName   string    `json:"customer_name"`
	CharacterClass string    `json:"character_class"`
	Level          int       `json:"level"`
	CreatedAt      time.Time `json:"created_at"`
}

// CartLine is one requested addition to a cart.
type CartLine struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// CartItem is a line in a cart, unique per (CartID, SKU).
type CartItem struct {
	CartID    int64     `json:"cart_id"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	UpdatedAt time.Time `json:"updated_at"`
}
