package rpc

import (
	"context"
	"net/http"
	"strings"

	"launchpad/core/types"
)

type tokenBalanceParams struct {
	Owner string `json:"owner"`
	Mint  string `json:"mint,omitempty"`
}

type tokenTransferParams struct {
	Mint   string `json:"mint,omitempty"`
	To     string `json:"to"`
	Amount uint64 `json:"amount,string"`
}

type eventsParams struct {
	Limit int `json:"limit,omitempty"`
}

type balanceResult struct {
	Owner   string `json:"owner"`
	Mint    string `json:"mint"`
	Symbol  string `json:"symbol"`
	Balance uint64 `json:"balance,string"`
}

// resolveMint defaults to the payment asset when no mint is named.
func (s *Server) resolveMint(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return s.node.PaymentMint(), nil
	}
	return decodeAccount(value)
}

func (s *Server) handleTokenBalance(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params tokenBalanceParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	owner, err := decodeAccount(params.Owner)
	if err != nil {
		return badParams("invalid owner address", err)
	}
	mintAddr, err := s.resolveMint(params.Mint)
	if err != nil {
		return badParams("invalid mint address", err)
	}
	mint, err := s.node.Mint(mintAddr)
	if err != nil {
		return failed(err)
	}
	balance, err := s.node.Balance(mintAddr, owner)
	if err != nil {
		return failed(err)
	}
	return balanceResult{
		Owner:   formatAddress(owner),
		Mint:    formatAddress(mintAddr),
		Symbol:  mint.Symbol,
		Balance: balance,
	}, nil, http.StatusOK
}

func (s *Server) handleTokenTransfer(ctx context.Context, caller [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params tokenTransferParams
	if err := decodeParams(req, &params, false); err != nil {
		return badParams("invalid parameter object", err)
	}
	to, err := decodeAccount(params.To)
	if err != nil {
		return badParams("invalid recipient address", err)
	}
	mintAddr, err := s.resolveMint(params.Mint)
	if err != nil {
		return badParams("invalid mint address", err)
	}
	if err := s.node.Transfer(ctx, caller, mintAddr, to, params.Amount); err != nil {
		return failed(err)
	}
	balance, err := s.node.Balance(mintAddr, caller)
	if err != nil {
		return failed(err)
	}
	return balanceResult{Owner: formatAddress(caller), Mint: formatAddress(mintAddr), Balance: balance}, nil, http.StatusOK
}

func (s *Server) handleEventsRecent(_ context.Context, _ [20]byte, req *RPCRequest) (interface{}, *RPCError, int) {
	var params eventsParams
	if err := decodeParams(req, &params, true); err != nil {
		return badParams("invalid parameter object", err)
	}
	if params.Limit <= 0 || params.Limit > 500 {
		params.Limit = 100
	}
	recent := s.node.Events(params.Limit)
	out := make([]*types.Event, 0, len(recent))
	for _, evt := range recent {
		if typed, ok := evt.(interface{ Event() *types.Event }); ok {
			out = append(out, typed.Event())
			continue
		}
		out = append(out, &types.Event{Type: evt.EventType()})
	}
	return out, nil, http.StatusOK
}
