/*
resource.go - Resource names and groupings

PURPOSE:
  Declares the closed set of resources the ledger tracks and the groups the
  aggregator sums over (all ml pools, all potion counts, capacity units).

CLOSED SET:
  Stores persist resources as plain strings. ParseResource turns a stored
  or user-supplied string back into a Resource; unknown names are rejected.

SEE ALSO:
  - types.go: Entry uses Resource
  - balance.go: group sums for the audit
*/
package ledger

import (
	"fmt"
	"strings"
)

// Resource identifies a ledger-tracked quantity.
type Resource string

const (
	Gold Resource = "gold"

	RedML   Resource = "red_ml"
	GreenML Resource = "green_ml"
	BlueML  Resource = "blue_ml"
	DarkML  Resource = "dark_ml"

	RedPotion   Resource = "red_potion"
	GreenPotion Resource = "green_potion"
	BluePotion  Resource = "blue_potion"
	DarkPotion  Resource = "dark_potion"

	// Capacity is counted in purchased units, not in ml or potions.
	MLCapacity     Resource = "ml_capacity"
	PotionCapacity Resource = "potion_capacity"
)

// =============================================================================
// GROUPS
// =============================================================================

var (
	// MLResources are the raw-material pools, in color order red, green, blue, dark.
	MLResources = []Resource{RedML, GreenML, BlueML, DarkML}

	// PotionResources are the bottled stock counts, in the same color order.
	PotionResources = []Resource{RedPotion, GreenPotion, BluePotion, DarkPotion}

	// CapacityResources are the storage upgrades.
	CapacityResources = []Resource{MLCapacity, PotionCapacity}

	// AllResources lists every resource the ledger accepts.
	AllResources = concat([]Resource{Gold}, MLResources, PotionResources, CapacityResources)
)

var known = func() map[Resource]bool {
	m := make(map[Resource]bool, len(AllResources))
	for _, r := range AllResources {
		m[r] = true
	}
	return m
}()

// Valid reports whether r is one of the tracked resources.
func (r Resource) Valid() bool { return known[r] }

func (r Resource) String() string { return string(r) }

// ParseResource converts a stored or user-supplied name into a Resource.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}
	return r, nil
}

func concat(groups ...[]Resource) []Resource {
	var out []Resource
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
