// Package errors defines the failure taxonomy shared by the launchpad engines.
// Engines wrap the sentinel values with context; callers classify failures
// with errors.Is or KindOf.
package errors

import (
	stderrors "errors"
)

// Kind identifies a class of failure surfaced to callers.
type Kind string

const (
	KindUnknown              Kind = "Unknown"
	KindInvalidAmount        Kind = "InvalidAmount"
	KindInvalidRate          Kind = "InvalidRate"
	KindInsufficientFunds    Kind = "InsufficientFunds"
	KindOverflow             Kind = "Overflow"
	KindAuthorityMismatch    Kind = "AuthorityMismatch"
	KindAffiliateMismatch    Kind = "AffiliateMismatch"
	KindNotFound             Kind = "NotFound"
	KindAlreadyExists        Kind = "AlreadyExists"
	KindInvalidLaunchWindow  Kind = "InvalidLaunchWindow"
	KindInvalidVesting       Kind = "InvalidVesting"
	KindNothingToClaim       Kind = "NothingToClaim"
	KindSignerSpent          Kind = "SignerSpent"
	KindRateUpdateNotAllowed Kind = "RateUpdateNotAllowed"
	KindUnauthorized         Kind = "Unauthorized"
)

// Error is a classified failure. Sentinels compare by identity so wrapped
// values keep working with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind returns the failure class.
func (e *Error) Kind() Kind { return e.kind }

var (
	ErrInvalidAmount        = newError(KindInvalidAmount, "invalid amount")
	ErrInvalidRate          = newError(KindInvalidRate, "commission rate out of range")
	ErrInsufficientFunds    = newError(KindInsufficientFunds, "insufficient funds")
	ErrOverflow             = newError(KindOverflow, "arithmetic overflow")
	ErrAuthorityMismatch    = newError(KindAuthorityMismatch, "authority mismatch")
	ErrAffiliateMismatch    = newError(KindAffiliateMismatch, "affiliate mismatch")
	ErrNotFound             = newError(KindNotFound, "not found")
	ErrAlreadyExists        = newError(KindAlreadyExists, "already exists")
	ErrInvalidLaunchWindow  = newError(KindInvalidLaunchWindow, "invalid launch window")
	ErrInvalidVesting       = newError(KindInvalidVesting, "invalid vesting schedule")
	ErrNothingToClaim       = newError(KindNothingToClaim, "nothing to claim")
	ErrSignerSpent          = newError(KindSignerSpent, "signer already used")
	ErrRateUpdateNotAllowed = newError(KindRateUpdateNotAllowed, "rate update not allowed")
	ErrUnauthorized         = newError(KindUnauthorized, "unauthorized")
)

// KindOf returns the kind of the first classified error in err's chain, or
// KindUnknown when none is present.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var classified *Error
	if stderrors.As(err, &classified) {
		return classified.kind
	}
	return KindUnknown
}
