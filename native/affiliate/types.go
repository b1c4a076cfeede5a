package affiliate

// MaxRateBps is the upper bound of every commission rate.
const MaxRateBps uint16 = 10_000

// Referral levels accepted at registration.
const (
	MinReferralLevel uint8 = 1
	MaxReferralLevel uint8 = 5
)

// Tier ranks affiliates by referred volume and conversion rate.
type Tier uint8

const (
	TierBronze Tier = iota
	TierSilver
	TierGold
	TierPlatinum
)

func (t Tier) String() string {
	switch t {
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	default:
		return "bronze"
	}
}

// Affiliate is the persisted registry entry for a referrer.
type Affiliate struct {
	Key                 [20]byte
	CommissionRateBps   uint16
	TotalReferredVolume uint64
	Tier                Tier
	SuccessfulReferrals uint32
	TotalClicks         uint32
	ConversionRateBps   uint16
	PerformanceScore    uint32
	RateCapsEnabled     bool
	MinRateBps          uint16
	MaxRateBps          uint16
	ReferralLevel       uint8
	Parent              [20]byte
	HasParent           bool
	RegisteredAt        uint64
	LastActivityAt      uint64
	LastRateUpdateAt    uint64
}

// Clone returns a deep copy of the record.
func (a *Affiliate) Clone() *Affiliate {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// RegisterParams carries the caller supplied registration options.
type RegisterParams struct {
	ReferralLevel   uint8
	Parent          *[20]byte
	RateCapsEnabled bool
	MinRateBps      uint16
	MaxRateBps      uint16
}

// Settlement reports the effects of a settled referral.
type Settlement struct {
	Affiliate   [20]byte
	Commission  uint64
	TotalVolume uint64
}
