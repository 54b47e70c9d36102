package classify

// Tier is the size bucket a collection falls into.
type Tier string

const (
	TierLong   Tier = "long"
	TierMedium Tier = "medium"
	TierShort  Tier = "short"
)

const (
	// LongThreshold is the smallest image count classed as long.
	LongThreshold = 150
	// MediumFloor is the largest image count still classed as short.
	MediumFloor = 50
)

// TierFor maps an image count to its tier.
func TierFor(count int) Tier {
	switch {
	case count >= LongThreshold:
		return TierLong
	case count > MediumFloor:
		return TierMedium
	default:
		return TierShort
	}
}

// Tiers lists every tier in report order.
func Tiers() []Tier {
	return []Tier{TierLong, TierMedium, TierShort}
}
