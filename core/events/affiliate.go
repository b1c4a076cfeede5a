package events

import (
	"strconv"

	"launchpad/core/types"
)

const (
	// TypeAffiliateRegistered is emitted when an affiliate record is created.
	TypeAffiliateRegistered = "affiliate.registered"
	// TypeAffiliateRateUpdated is emitted when the commission rate changes.
	TypeAffiliateRateUpdated = "affiliate.rate.updated"
	// TypeAffiliateAnalyticsUpdated is emitted when clicks are recorded.
	TypeAffiliateAnalyticsUpdated = "affiliate.analytics.updated"
	// TypeCommissionSettled is emitted once per settled referral.
	TypeCommissionSettled = "affiliate.commission.settled"
)

// AffiliateRegistered captures the initial affiliate configuration.
type AffiliateRegistered struct {
	Affiliate [20]byte
	RateBps   uint16
	Level     uint8
	Parent    [20]byte
	HasParent bool
}

// EventType implements the Event interface.
func (AffiliateRegistered) EventType() string { return TypeAffiliateRegistered }

// Event converts the payload to the generic event representation.
func (e AffiliateRegistered) Event() *types.Event {
	attrs := map[string]string{
		"affiliate": formatAddr(e.Affiliate),
		"rateBps":   strconv.FormatUint(uint64(e.RateBps), 10),
		"level":     strconv.FormatUint(uint64(e.Level), 10),
	}
	if e.HasParent {
		attrs["parent"] = formatAddr(e.Parent)
	}
	return &types.Event{Type: TypeAffiliateRegistered, Attributes: attrs}
}

// AffiliateRateUpdated captures a commission rate transition.
type AffiliateRateUpdated struct {
	Affiliate  [20]byte
	OldRateBps uint16
	NewRateBps uint16
}

// EventType implements the Event interface.
func (AffiliateRateUpdated) EventType() string { return TypeAffiliateRateUpdated }

// Event converts the payload to the generic event representation.
func (e AffiliateRateUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeAffiliateRateUpdated,
		Attributes: map[string]string{
			"affiliate":  formatAddr(e.Affiliate),
			"oldRateBps": strconv.FormatUint(uint64(e.OldRateBps), 10),
			"newRateBps": strconv.FormatUint(uint64(e.NewRateBps), 10),
		},
	}
}

// AffiliateAnalyticsUpdated captures a click report and the refreshed
// conversion metrics.
type AffiliateAnalyticsUpdated struct {
	Affiliate         [20]byte
	Clicks            uint32
	TotalClicks       uint32
	ConversionRateBps uint16
	Tier              string
}

// EventType implements the Event interface.
func (AffiliateAnalyticsUpdated) EventType() string { return TypeAffiliateAnalyticsUpdated }

// Event converts the payload to the generic event representation.
func (e AffiliateAnalyticsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeAffiliateAnalyticsUpdated,
		Attributes: map[string]string{
			"affiliate":         formatAddr(e.Affiliate),
			"clicks":            formatUint(uint64(e.Clicks)),
			"totalClicks":       formatUint(uint64(e.TotalClicks)),
			"conversionRateBps": strconv.FormatUint(uint64(e.ConversionRateBps), 10),
			"tier":              e.Tier,
		},
	}
}

// CommissionSettled captures the outcome of a settlement call.
type CommissionSettled struct {
	Affiliate      [20]byte
	Mint           [20]byte
	PurchasedUnits uint64
	Commission     uint64
	TotalVolume    uint64
}

// EventType implements the Event interface.
func (CommissionSettled) EventType() string { return TypeCommissionSettled }

// Event converts the payload to the generic event representation.
func (e CommissionSettled) Event() *types.Event {
	return &types.Event{
		Type: TypeCommissionSettled,
		Attributes: map[string]string{
			"affiliate":      formatAddr(e.Affiliate),
			"mint":           formatAddr(e.Mint),
			"purchasedUnits": formatUint(e.PurchasedUnits),
			"commission":     formatUint(e.Commission),
			"totalVolume":    formatUint(e.TotalVolume),
		},
	}
}
