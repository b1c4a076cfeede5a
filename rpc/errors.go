package rpc

import (
	"net/http"

	coreerrors "launchpad/core/errors"
)

const (
	codeInvalidInput      = -32010
	codeInsufficientFunds = -32011
	codeOverflow          = -32012
	codeForbidden         = -32013
	codeNotFound          = -32014
	codeConflict          = -32015
)

type errorData struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// nodeError maps an engine failure onto a JSON-RPC error and HTTP status.
func nodeError(err error) (*RPCError, int) {
	kind := coreerrors.KindOf(err)
	code, status := codeServerError, http.StatusInternalServerError
	switch kind {
	case coreerrors.KindInvalidAmount, coreerrors.KindInvalidRate,
		coreerrors.KindInvalidLaunchWindow, coreerrors.KindInvalidVesting:
		code, status = codeInvalidInput, http.StatusBadRequest
	case coreerrors.KindInsufficientFunds:
		code, status = codeInsufficientFunds, http.StatusBadRequest
	case coreerrors.KindOverflow:
		code, status = codeOverflow, http.StatusBadRequest
	case coreerrors.KindAuthorityMismatch, coreerrors.KindAffiliateMismatch,
		coreerrors.KindSignerSpent, coreerrors.KindUnauthorized:
		code, status = codeForbidden, http.StatusForbidden
	case coreerrors.KindNotFound:
		code, status = codeNotFound, http.StatusNotFound
	case coreerrors.KindAlreadyExists, coreerrors.KindRateUpdateNotAllowed,
		coreerrors.KindNothingToClaim:
		code, status = codeConflict, http.StatusConflict
	}
	message := string(kind)
	if kind == coreerrors.KindUnknown {
		message = "internal error"
	}
	return &RPCError{Code: code, Message: message, Data: errorData{Kind: string(kind), Detail: err.Error()}}, status
}

func failed(err error) (interface{}, *RPCError, int) {
	rpcErr, status := nodeError(err)
	return nil, rpcErr, status
}

func badParams(message string, err error) (interface{}, *RPCError, int) {
	rpcErr := &RPCError{Code: codeInvalidParams, Message: message}
	if err != nil {
		rpcErr.Data = err.Error()
	}
	return nil, rpcErr, http.StatusBadRequest
}
