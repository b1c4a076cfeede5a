package rpc

import (
	"context"
	"net/http"
	"strings"

	"launchpad/native/affiliate"
)

type affiliateRegisterParams struct {
	ReferralLevel   uint8  `json:"referralLevel"`
	Parent          string `json:"parent,omitempty"`
	RateCapsEnabled bool   `json:"rateCapsEnabled,omitempty"`
	MinRateBps      uint16 `json:"minRateBps,omitempty"`
	MaxRateBps      uint16 `json:"maxRateBps,omitempty"`
}

type affiliateRateParams struct {
	RateBps uint16 `json:"rateBps"`
}

type affiliateClicksParams struct {
	Clicks uint32 `json:"clicks"`
}

type affiliateRefParams struct {
	Affiliate string `json:"affiliate"`
}

type suggestedRateResult struct {
	Affiliate        string `json:"affiliate"`
	Tier             string `json:"tier"`
	CurrentBps       uint16 `json:"currentBps"`
	SuggestedBps     uint16 `json:"suggestedBps"`
	ConversionBps    uint16 `json:"conversionRateBps"`
	PerformanceScore uint32 `json:"performanceScore"`
}

func (s *Server) handleAffiliateRegister(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params affiliateRegisterParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	register := affiliate.RegisterParams{
		ReferralLevel:   params.ReferralLevel,
		RateCapsEnabled: params.RateCapsEnabled,
		MinRateBps:      params.MinRateBps,
		MaxRateBps:      params.MaxRateBps,
	}
	if strings.TrimSpace(params.Parent) != "" {
		parent, err := decodeAccount(params.Parent)
		if err != nil {
			return badParams("invalid parent address", err)
		}
		register.Parent = &parent
	}
	record, err := s.node.RegisterAffiliate(ctx, caller, register)
	if err != nil {
		return failed(err)
	}
	return formatAffiliate(record), nil, http.StatusOK
}

func (s *Server) handleAffiliateSetRate(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params affiliateRateParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	record, err := s.node.SetAffiliateRate(ctx, caller, params.RateBps)
	if err != nil {
		return failed(err)
	}
	return formatAffiliate(record), nil, http.StatusOK
}

func (s *Server) handleAffiliateUpdateRate(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params affiliateRateParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	record, err := s.node.UpdateAffiliateRate(ctx, caller, params.RateBps)
	if err != nil {
		return failed(err)
	}
	return formatAffiliate(record), nil, http.StatusOK
}

func (s *Server) handleAffiliateRecordClicks(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params affiliateClicksParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	record, err := s.node.RecordAffiliateClicks(ctx, caller, params.Clicks)
	if err != nil {
		return failed(err)
	}
	return formatAffiliate(record), nil, http.StatusOK
}

func (s *Server) handleAffiliateGet(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params affiliateRefParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	key, err := decodeAccount(params.Affiliate)
	if err != nil {
		return badParams("invalid affiliate address", err)
	}
	record, err := s.node.Affiliate(key)
	if err != nil {
		return failed(err)
	}
	return formatAffiliate(record), nil, http.StatusOK
}

func (s *Server) handleAffiliateSuggestedRate(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params affiliateRefParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	key, err := decodeAccount(params.Affiliate)
	if err != nil {
		return badParams("invalid affiliate address", err)
	}
	rate, record, err := s.node.SuggestedAffiliateRate(key)
	if err != nil {
		return failed(err)
	}
	return suggestedRateResult{
		Affiliate:        params.Affiliate,
		Tier:             record.Tier.String(),
		CurrentBps:       record.CommissionRateBps,
		SuggestedBps:     rate,
		ConversionBps:    record.ConversionRateBps,
		PerformanceScore: record.PerformanceScore,
	}, nil, http.StatusOK
}
