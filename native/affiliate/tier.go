package affiliate

import "math"

const (
	platinumVolume = 1_000_000_000
	goldVolume     = 100_000_000
	silverVolume   = 10_000_000

	goldConversionBps   = 500
	silverConversionBps = 200

	// Conversion bounds that move the suggested rate up or down.
	strongConversionBps = 500
	weakConversionBps   = 100

	minSuggestedBps = 50
	maxSuggestedBps = 2000
)

func computeTier(volume uint64, conversionBps uint16) Tier {
	switch {
	case volume >= platinumVolume:
		return TierPlatinum
	case volume >= goldVolume && conversionBps >= goldConversionBps:
		return TierGold
	case volume >= silverVolume && conversionBps >= silverConversionBps:
		return TierSilver
	default:
		return TierBronze
	}
}

func tierMultiplier(t Tier) uint64 {
	switch t {
	case TierSilver:
		return 2
	case TierGold:
		return 3
	case TierPlatinum:
		return 5
	default:
		return 1
	}
}

// computeScore awards one point per million referred units, one per ten
// basis points of conversion and one per ten referrals, scaled by the tier
// multiplier. The result saturates at MaxUint32.
func computeScore(a *Affiliate) uint32 {
	points := a.TotalReferredVolume/1_000_000 + uint64(a.ConversionRateBps)/10 + uint64(a.SuccessfulReferrals)/10
	multiplier := tierMultiplier(a.Tier)
	if points > math.MaxUint32/multiplier {
		return math.MaxUint32
	}
	return uint32(points * multiplier)
}

// conversionRate is referrals per click in basis points, capped at 100%.
func conversionRate(referrals, clicks uint32) uint16 {
	if clicks == 0 {
		return 0
	}
	bps := uint64(referrals) * uint64(MaxRateBps) / uint64(clicks)
	if bps > uint64(MaxRateBps) {
		return MaxRateBps
	}
	return uint16(bps)
}

func baseRate(t Tier) int {
	switch t {
	case TierSilver:
		return 750
	case TierGold:
		return 1000
	case TierPlatinum:
		return 1250
	default:
		return 500
	}
}

// suggestedRate adjusts the tier rate by the observed conversion. Affiliates
// without recorded clicks have no conversion signal and get the tier rate.
func suggestedRate(a *Affiliate) uint16 {
	rate := baseRate(a.Tier)
	if a.TotalClicks > 0 {
		switch {
		case a.ConversionRateBps >= strongConversionBps:
			rate += 100
		case a.ConversionRateBps <= weakConversionBps:
			rate -= 50
		}
	}
	if rate < minSuggestedBps {
		rate = minSuggestedBps
	}
	if rate > maxSuggestedBps {
		rate = maxSuggestedBps
	}
	return uint16(rate)
}

func (a *Affiliate) refreshPerformance() {
	a.ConversionRateBps = conversionRate(a.SuccessfulReferrals, a.TotalClicks)
	a.Tier = computeTier(a.TotalReferredVolume, a.ConversionRateBps)
	a.PerformanceScore = computeScore(a)
}
