package shop

// PlanBottles returns at most one mix to bottle this tick.
//
// A restock color is eligible when it is under RestockThreshold potions and
// holds at least one BottleVolume of ml. With no eligible color, a single
// dark potion is planned if dark ml allows it, so the bottler is never idle.
func PlanBottles(inv Inventory, rng Rand) []PotionMix {
	var eligible []Color
	for _, c := range restockColors {
		if inv.Potions[c] < RestockThreshold && inv.ML[c] >= BottleVolume {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		if inv.ML[Dark] >= BottleVolume {
			return []PotionMix{{PotionType: PurePotionType(Dark), Quantity: 1}}
		}
		return []PotionMix{}
	}

	color := pick(rng, eligible)
	qty := min(inv.ML[color]/BottleVolume, MaxBottlesPerTick)
	if qty < 1 {
		return []PotionMix{}
	}
	return []PotionMix{{PotionType: PurePotionType(color), Quantity: qty}}
}
