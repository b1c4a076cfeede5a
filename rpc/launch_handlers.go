package rpc

import (
	"context"
	"net/http"
	"strings"

	"launchpad/native/launchpad"
)

type launchCreateParams struct {
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
	InitialPrice    uint64 `json:"initialPrice,string"`
	Slope           uint64 `json:"slope,string"`
	StartTime       uint64 `json:"startTime,omitempty"`
	EndTime         uint64 `json:"endTime,omitempty"`
	MinPayment      uint64 `json:"minPayment,string,omitempty"`
	MaxPayment      uint64 `json:"maxPayment,string,omitempty"`
	VestingEnabled  bool   `json:"vestingEnabled,omitempty"`
	VestingDuration uint64 `json:"vestingDuration,omitempty"`
	VestingCliff    uint64 `json:"vestingCliff,omitempty"`
}

type launchPurchaseParams struct {
	Launch    string `json:"launch"`
	Payment   uint64 `json:"payment,string"`
	Affiliate string `json:"affiliate,omitempty"`
	Vest      bool   `json:"vest,omitempty"`
}

type launchUpdateParams struct {
	Launch     string  `json:"launch"`
	EndTime    *uint64 `json:"endTime,omitempty"`
	MinPayment *uint64 `json:"minPayment,string,omitempty"`
	MaxPayment *uint64 `json:"maxPayment,string,omitempty"`
}

type launchRefParams struct {
	Launch string `json:"launch"`
}

type launchPriceParams struct {
	Launch string  `json:"launch"`
	Index  *uint64 `json:"index,omitempty"`
}

type launchQuoteParams struct {
	Launch  string `json:"launch"`
	Payment uint64 `json:"payment,string"`
}

type launchVestingParams struct {
	Launch      string `json:"launch"`
	Beneficiary string `json:"beneficiary"`
}

type purchaseResult struct {
	Units       uint64 `json:"units,string"`
	Cost        uint64 `json:"cost,string"`
	Commission  uint64 `json:"commission,string"`
	UnitsSold   uint64 `json:"unitsSold,string"`
	PriceBefore uint64 `json:"priceBefore,string"`
	PriceAfter  uint64 `json:"priceAfter,string"`
	Vested      bool   `json:"vested"`
}

type launchDetailResult struct {
	launchResult
	CurrentPrice uint64 `json:"currentPrice,string"`
	VaultBalance uint64 `json:"vaultBalance,string"`
}

type amountResult struct {
	Launch string `json:"launch"`
	Amount uint64 `json:"amount,string"`
}

type priceResult struct {
	Launch string `json:"launch"`
	Index  uint64 `json:"index,string"`
	Price  uint64 `json:"price,string"`
}

type quoteResult struct {
	Launch  string `json:"launch"`
	Payment uint64 `json:"payment,string"`
	Units   uint64 `json:"units,string"`
	Cost    uint64 `json:"cost,string"`
	Change  uint64 `json:"change,string"`
}

func (s *Server) handleLaunchCreate(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchCreateParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	if strings.TrimSpace(params.Symbol) == "" {
		return badParams("symbol is required", nil)
	}
	launch, err := s.node.CreateLaunch(ctx, caller, launchpad.CreateLaunchParams{
		Symbol:          params.Symbol,
		Decimals:        params.Decimals,
		InitialPrice:    params.InitialPrice,
		Slope:           params.Slope,
		StartTime:       params.StartTime,
		EndTime:         params.EndTime,
		MinPayment:      params.MinPayment,
		MaxPayment:      params.MaxPayment,
		VestingEnabled:  params.VestingEnabled,
		VestingDuration: params.VestingDuration,
		VestingCliff:    params.VestingCliff,
	})
	if err != nil {
		return failed(err)
	}
	return formatLaunch(launch), nil, http.StatusOK
}

func (s *Server) handleLaunchPurchase(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchPurchaseParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	purchase := launchpad.PurchaseRequest{
		Buyer:   caller,
		Launch:  launchAddr,
		Payment: params.Payment,
		Vest:    params.Vest,
	}
	if strings.TrimSpace(params.Affiliate) != "" {
		ref, err := decodeAccount(params.Affiliate)
		if err != nil {
			return badParams("invalid affiliate address", err)
		}
		purchase.Affiliate = &ref
	}
	result, err := s.node.Purchase(ctx, purchase)
	if err != nil {
		return failed(err)
	}
	return purchaseResult{
		Units:       result.Units,
		Cost:        result.Cost,
		Commission:  result.Commission,
		UnitsSold:   result.UnitsSold,
		PriceBefore: result.PriceBefore,
		PriceAfter:  result.PriceAfter,
		Vested:      result.Vested,
	}, nil, http.StatusOK
}

func (s *Server) handleLaunchWithdraw(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchRefParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	amount, err := s.node.Withdraw(ctx, caller, launchAddr)
	if err != nil {
		return failed(err)
	}
	return amountResult{Launch: params.Launch, Amount: amount}, nil, http.StatusOK
}

func (s *Server) handleLaunchUpdate(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchUpdateParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	launch, err := s.node.UpdateLaunch(ctx, caller, launchAddr, launchpad.UpdateLaunchParams{
		EndTime:    params.EndTime,
		MinPayment: params.MinPayment,
		MaxPayment: params.MaxPayment,
	})
	if err != nil {
		return failed(err)
	}
	return formatLaunch(launch), nil, http.StatusOK
}

func (s *Server) handleLaunchClaimVested(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchRefParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	amount, err := s.node.ClaimVested(ctx, caller, launchAddr)
	if err != nil {
		return failed(err)
	}
	return amountResult{Launch: params.Launch, Amount: amount}, nil, http.StatusOK
}

func (s *Server) handleLaunchGet(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchRefParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	launch, err := s.node.Launch(launchAddr)
	if err != nil {
		return failed(err)
	}
	price, err := s.node.LaunchPrice(launchAddr)
	if err != nil {
		return failed(err)
	}
	vault, err := s.node.VaultBalance(launchAddr)
	if err != nil {
		return failed(err)
	}
	return launchDetailResult{launchResult: formatLaunch(launch), CurrentPrice: price, VaultBalance: vault}, nil, http.StatusOK
}

func (s *Server) handleLaunchList(_ context.Context, _ [20]byte, _ *RPCRequest) (interface{}, *RPCError, int) {
	launches, err := s.node.Launches()
	if err != nil {
		return failed(err)
	}
	out := make([]launchResult, 0, len(launches))
	for _, launch := range launches {
		out = append(out, formatLaunch(launch))
	}
	return out, nil, http.StatusOK
}

func (s *Server) handleLaunchPrice(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchPriceParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	var index uint64
	if params.Index != nil {
		index = *params.Index
	} else {
		launch, err := s.node.Launch(launchAddr)
		if err != nil {
			return failed(err)
		}
		index = launch.UnitsSold
	}
	price, err := s.node.LaunchPriceAt(launchAddr, index)
	if err != nil {
		return failed(err)
	}
	return priceResult{Launch: params.Launch, Index: index, Price: price}, nil, http.StatusOK
}

func (s *Server) handleLaunchQuote(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchQuoteParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	quote, err := s.node.QuotePurchase(launchAddr, params.Payment)
	if err != nil {
		return failed(err)
	}
	return quoteResult{
		Launch:  params.Launch,
		Payment: params.Payment,
		Units:   quote.Units,
		Cost:    quote.Cost,
		Change:  params.Payment - quote.Cost,
	}, nil, http.StatusOK
}

func (s *Server) handleLaunchVesting(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params launchVestingParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	launchAddr, err := decodeAccount(params.Launch)
	if err != nil {
		return badParams("invalid launch address", err)
	}
	beneficiary, err := decodeAccount(params.Beneficiary)
	if err != nil {
		return badParams("invalid beneficiary address", err)
	}
	schedule, err := s.node.Vesting(launchAddr, beneficiary)
	if err != nil {
		return failed(err)
	}
	return formatVesting(schedule, s.node.Now()), nil, http.StatusOK
}
