/*
delivery.go - Delivery validation and ledger deltas

PURPOSE:
  Turns delivered barrels and bottled mixes into ledger entries. Everything
  here is pure: validation happens before any write, and the Service posts
  the returned entries inside the idempotent transaction.

BARRELS:
  ml[c] = floor( SUM(quantity * ml_per_barrel * fraction[c]) )
  gold  = -SUM(price * quantity)

BOTTLES:
  ml[c]         = -SUM(quantity * BottleVolume * pct[c] / 100)
  potion[color] = +SUM(quantity) for the color whose pct is 100
*/
package shop

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/potion-shop/ledger"
)

var fractionTolerance = decimal.New(1, -6)

// ValidateBarrel checks one wholesale offer. Quantity 0 is allowed in a
// catalog (sold out) but not in a delivery.
func ValidateBarrel(b Barrel) error {
	if strings.TrimSpace(b.SKU) == "" {
		return fmt.Errorf("%w: empty sku", ErrInvalidBarrel)
	}
	if len(b.PotionType) != len(Colors) {
		return fmt.Errorf("%w: %s: potion_type has %d components, want %d",
			ErrInvalidBarrel, b.SKU, len(b.PotionType), len(Colors))
	}
	sum := decimal.Zero
	for _, f := range b.PotionType {
		if f.IsNegative() || f.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s: fraction %s out of range", ErrInvalidBarrel, b.SKU, f)
		}
		sum = sum.Add(f)
	}
	if sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(fractionTolerance) {
		return fmt.Errorf("%w: %s: fractions sum to %s", ErrInvalidBarrel, b.SKU, sum)
	}
	if b.MLPerBarrel <= 0 || b.MLPerBarrel > MaxMLPerBarrel {
		return fmt.Errorf("%w: %s: ml_per_barrel must be in 1..%d", ErrInvalidBarrel, b.SKU, MaxMLPerBarrel)
	}
	if b.Price < 0 || b.Price > MaxBarrelPrice {
		return fmt.Errorf("%w: %s: price must be in 0..%d", ErrInvalidBarrel, b.SKU, MaxBarrelPrice)
	}
	if b.Quantity < 0 || b.Quantity > MaxBarrelQuantity {
		return fmt.Errorf("%w: %s: quantity must be in 0..%d", ErrInvalidQuantity, b.SKU, MaxBarrelQuantity)
	}
	return nil
}

// ValidateCatalog checks a wholesale catalog before planning.
func ValidateCatalog(catalog []Barrel) error {
	if len(catalog) > MaxOrderLines {
		return fmt.Errorf("%w: %d barrels, max %d", ErrCatalogTooLarge, len(catalog), MaxOrderLines)
	}
	for _, b := range catalog {
		if err := ValidateBarrel(b); err != nil {
			return err
		}
	}
	return nil
}

// BarrelDeltas validates a barrel delivery and returns its ledger entries.
func BarrelDeltas(barrels []Barrel) ([]ledger.Entry, error) {
	if len(barrels) > MaxOrderLines {
		return nil, fmt.Errorf("%w: %d barrels, max %d", ErrCatalogTooLarge, len(barrels), MaxOrderLines)
	}
	ml := make([]decimal.Decimal, len(Colors))
	for i := range ml {
		ml[i] = decimal.Zero
	}
	var gold int64
	for _, b := range barrels {
		if err := ValidateBarrel(b); err != nil {
			return nil, err
		}
		if b.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, b.SKU)
		}
		volume := decimal.NewFromInt(b.Quantity * b.MLPerBarrel)
		for _, c := range Colors {
			ml[c] = ml[c].Add(volume.Mul(b.PotionType[c]))
		}
		gold += b.Price * b.Quantity
	}

	entries := []ledger.Entry{{
		Resource: ledger.Gold,
		Change:   -gold,
		Context:  "barrel delivery",
	}}
	for _, c := range Colors {
		entries = append(entries, ledger.Entry{
			Resource: c.MLResource(),
			Change:   ml[c].Floor().IntPart(),
			Context:  "barrel delivery",
		})
	}
	return entries, nil
}

// ValidateMix checks a bottling line and returns the color it produces.
func ValidateMix(m PotionMix) (Color, error) {
	if len(m.PotionType) != len(Colors) {
		return 0, fmt.Errorf("%w: potion_type has %d components, want %d",
			ErrInvalidMix, len(m.PotionType), len(Colors))
	}
	var sum int64
	dominant := -1
	for i, pct := range m.PotionType {
		if pct < 0 {
			return 0, fmt.Errorf("%w: negative component %d", ErrInvalidMix, pct)
		}
		if pct == 100 {
			dominant = i
		}
		sum += pct
	}
	if sum != 100 {
		return 0, fmt.Errorf("%w: components sum to %d, want 100", ErrInvalidMix, sum)
	}
	if dominant < 0 {
		return 0, fmt.Errorf("%w: %v has no 100%% component", ErrInvalidMix, m.PotionType)
	}
	if m.Quantity <= 0 || m.Quantity > MaxMixQuantity {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, m.Quantity)
	}
	return Color(dominant), nil
}

// BottleDeltas validates a bottling delivery and returns its ledger entries.
func BottleDeltas(mixes []PotionMix) ([]ledger.Entry, error) {
	if len(mixes) > MaxOrderLines {
		return nil, fmt.Errorf("%w: %d mixes, max %d", ErrCatalogTooLarge, len(mixes), MaxOrderLines)
	}
	var used [4]int64 // ml * 100
	var made [4]int64
	for _, m := range mixes {
		color, err := ValidateMix(m)
		if err != nil {
			return nil, err
		}
		for _, c := range Colors {
			used[c] += m.Quantity * BottleVolume * m.PotionType[c]
		}
		made[color] += m.Quantity
	}

	var entries []ledger.Entry
	for _, c := range Colors {
		entries = append(entries, ledger.Entry{
			Resource: c.MLResource(),
			Change:   -(used[c] / 100),
			Context:  "bottling",
		})
	}
	for _, c := range Colors {
		entries = append(entries, ledger.Entry{
			Resource: c.PotionResource(),
			Change:   made[c],
			Context:  "bottling",
		})
	}
	return entries, nil
}
