package rpc

import (
	"encoding/json"
	"errors"
	"strings"

	"launchpad/crypto"
	"launchpad/native/affiliate"
	"launchpad/native/launchpad"
)

var errParamCount = errors.New("exactly one parameter object expected")

// decodeParams unmarshals the single parameter object of req into out.
// Methods without required fields accept an empty parameter list.
func decodeParams(req *RPCRequest, out interface{}, optional bool) error {
	if len(req.Params) == 0 && optional {
		return nil
	}
	if len(req.Params) != 1 {
		return errParamCount
	}
	dec := json.NewDecoder(strings.NewReader(string(req.Params[0])))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func decodeAccount(value string) ([20]byte, error) {
	return crypto.DecodeAccount(value)
}

func formatAddress(addr [20]byte) string {
	return crypto.FormatAccount(addr)
}

type launchResult struct {
	Address         string `json:"address"`
	Authority       string `json:"authority"`
	Mint            string `json:"mint"`
	Vault           string `json:"vault"`
	InitialPrice    uint64 `json:"initialPrice,string"`
	Slope           uint64 `json:"slope,string"`
	UnitsSold       uint64 `json:"unitsSold,string"`
	StartTime       uint64 `json:"startTime"`
	EndTime         uint64 `json:"endTime"`
	MinPayment      uint64 `json:"minPayment,string"`
	MaxPayment      uint64 `json:"maxPayment,string"`
	VestingEnabled  bool   `json:"vestingEnabled"`
	VestingDuration uint64 `json:"vestingDuration,omitempty"`
	VestingCliff    uint64 `json:"vestingCliff,omitempty"`
	TotalCollected  uint64 `json:"totalCollected,string"`
	PurchaseCount   uint64 `json:"purchaseCount"`
	LastPurchaseAt  uint64 `json:"lastPurchaseAt,omitempty"`
	CreatedAt       uint64 `json:"createdAt"`
}

func formatLaunch(l *launchpad.Launch) launchResult {
	return launchResult{
		Address:         formatAddress(l.Address),
		Authority:       formatAddress(l.Authority),
		Mint:            formatAddress(l.Mint),
		Vault:           formatAddress(l.Vault),
		InitialPrice:    l.InitialPrice,
		Slope:           l.Slope,
		UnitsSold:       l.UnitsSold,
		StartTime:       l.StartTime,
		EndTime:         l.EndTime,
		MinPayment:      l.MinPayment,
		MaxPayment:      l.MaxPayment,
		VestingEnabled:  l.VestingEnabled,
		VestingDuration: l.VestingDuration,
		VestingCliff:    l.VestingCliff,
		TotalCollected:  l.TotalCollected,
		PurchaseCount:   l.PurchaseCount,
		LastPurchaseAt:  l.LastPurchaseAt,
		CreatedAt:       l.CreatedAt,
	}
}

type affiliateResult struct {
	Key                 string `json:"key"`
	CommissionRateBps   uint16 `json:"commissionRateBps"`
	TotalReferredVolume uint64 `json:"totalReferredVolume,string"`
	Tier                string `json:"tier"`
	SuccessfulReferrals uint32 `json:"successfulReferrals"`
	TotalClicks         uint32 `json:"totalClicks"`
	ConversionRateBps   uint16 `json:"conversionRateBps"`
	PerformanceScore    uint32 `json:"performanceScore"`
	RateCapsEnabled     bool   `json:"rateCapsEnabled"`
	MinRateBps          uint16 `json:"minRateBps,omitempty"`
	MaxRateBps          uint16 `json:"maxRateBps,omitempty"`
	ReferralLevel       uint8  `json:"referralLevel"`
	Parent              string `json:"parent,omitempty"`
	RegisteredAt        uint64 `json:"registeredAt"`
	LastActivityAt      uint64 `json:"lastActivityAt,omitempty"`
	LastRateUpdateAt    uint64 `json:"lastRateUpdateAt,omitempty"`
}

func formatAffiliate(a *affiliate.Affiliate) affiliateResult {
	out := affiliateResult{
		Key:                 formatAddress(a.Key),
		CommissionRateBps:   a.CommissionRateBps,
		TotalReferredVolume: a.TotalReferredVolume,
		Tier:                a.Tier.String(),
		SuccessfulReferrals: a.SuccessfulReferrals,
		TotalClicks:         a.TotalClicks,
		ConversionRateBps:   a.ConversionRateBps,
		PerformanceScore:    a.PerformanceScore,
		RateCapsEnabled:     a.RateCapsEnabled,
		ReferralLevel:       a.ReferralLevel,
		RegisteredAt:        a.RegisteredAt,
		LastActivityAt:      a.LastActivityAt,
		LastRateUpdateAt:    a.LastRateUpdateAt,
	}
	if a.RateCapsEnabled {
		out.MinRateBps = a.MinRateBps
		out.MaxRateBps = a.MaxRateBps
	}
	if a.HasParent {
		out.Parent = formatAddress(a.Parent)
	}
	return out
}

type vestingResult struct {
	Launch      string `json:"launch"`
	Beneficiary string `json:"beneficiary"`
	Account     string `json:"account"`
	Total       uint64 `json:"total,string"`
	Claimed     uint64 `json:"claimed,string"`
	Claimable   uint64 `json:"claimable,string"`
	StartTime   uint64 `json:"startTime"`
	Cliff       uint64 `json:"cliff"`
	Duration    uint64 `json:"duration"`
}

func formatVesting(v *launchpad.VestingSchedule, now uint64) vestingResult {
	return vestingResult{
		Launch:      formatAddress(v.Launch),
		Beneficiary: formatAddress(v.Beneficiary),
		Account:     formatAddress(v.Account),
		Total:       v.Total,
		Claimed:     v.Claimed,
		Claimable:   v.Claimable(now),
		StartTime:   v.StartTime,
		Cliff:       v.Cliff,
		Duration:    v.Duration,
	}
}
