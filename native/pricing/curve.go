// Package pricing evaluates the linear bonding curve
//
//	price(n) = initialPrice + slope*n
//
// and finds the largest purchase a payment can cover. All arithmetic runs in a
// 128-bit accumulator with explicit range checks; nothing wraps.
package pricing

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	coreerrors "launchpad/core/errors"
)

const accumulatorBits = 128

// Quote is the outcome of a purchase quote.
type Quote struct {
	Units uint64
	Cost  uint64
}

// Curve holds the immutable parameters of a linear bonding curve.
type Curve struct {
	InitialPrice uint64
	Slope        uint64
}

// Quote returns the largest number of units purchasable with payment starting
// at unitsSold, along with their exact cost.
func (c Curve) Quote(unitsSold, payment uint64) (Quote, error) {
	return QuotePurchase(c.InitialPrice, c.Slope, unitsSold, payment)
}

// PriceAt returns the price of the unit at position n.
func (c Curve) PriceAt(n uint64) (uint64, error) {
	return PriceAt(c.InitialPrice, c.Slope, n)
}

// Cost returns the price of k consecutive units starting at unitsSold.
func (c Curve) Cost(unitsSold, k uint64) (uint64, error) {
	return Cost(c.InitialPrice, c.Slope, unitsSold, k)
}

// PriceAt returns initialPrice + slope*n, failing with ErrOverflow when the
// price does not fit in 64 bits.
func PriceAt(initialPrice, slope, n uint64) (uint64, error) {
	price, ok := cost(initialPrice, slope, n, 1)
	if !ok || !price.IsUint64() {
		return 0, fmt.Errorf("pricing: price at %d: %w", n, coreerrors.ErrOverflow)
	}
	return price.Uint64(), nil
}

// Cost returns the sum of the prices of units unitsSold..unitsSold+k-1:
//
//	k*initialPrice + slope*(k*unitsSold + k*(k-1)/2)
func Cost(initialPrice, slope, unitsSold, k uint64) (uint64, error) {
	total, ok := cost(initialPrice, slope, unitsSold, k)
	if !ok || !total.IsUint64() {
		return 0, fmt.Errorf("pricing: cost of %d units: %w", k, coreerrors.ErrOverflow)
	}
	return total.Uint64(), nil
}

// QuotePurchase finds the maximal k with Cost(unitsSold, k) <= payment by
// binary search. Candidates whose cost overflows the accumulator are treated as
// infeasible.
func QuotePurchase(initialPrice, slope, unitsSold, payment uint64) (Quote, error) {
	if payment == 0 {
		return Quote{}, fmt.Errorf("pricing: zero payment: %w", coreerrors.ErrInvalidAmount)
	}
	if initialPrice == 0 && slope == 0 {
		return Quote{}, fmt.Errorf("pricing: unbounded curve: %w", coreerrors.ErrInvalidAmount)
	}
	first, err := PriceAt(initialPrice, slope, unitsSold)
	if err != nil {
		return Quote{}, err
	}
	if first > payment {
		return Quote{}, fmt.Errorf("pricing: first unit costs %d, payment %d: %w", first, payment, coreerrors.ErrInsufficientFunds)
	}

	// Every unit after the first costs at least one base unit, so the payment
	// bounds the count. A free first unit adds one more.
	hi := payment
	if first == 0 && hi < math.MaxUint64 {
		hi++
	}
	if room := math.MaxUint64 - unitsSold; hi > room {
		hi = room
	}
	if hi == 0 {
		return Quote{}, fmt.Errorf("pricing: units sold saturated: %w", coreerrors.ErrOverflow)
	}

	limit := uint256.NewInt(payment)
	lo := uint64(1)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if total, ok := cost(initialPrice, slope, unitsSold, mid); ok && !total.Gt(limit) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	total, _ := cost(initialPrice, slope, unitsSold, lo)
	return Quote{Units: lo, Cost: total.Uint64()}, nil
}

// cost evaluates the curve sum in the 128-bit accumulator. The boolean is false
// when any intermediate step leaves the accumulator range.
func cost(initialPrice, slope, sold, k uint64) (*uint256.Int, bool) {
	kk := uint256.NewInt(k)

	base := new(uint256.Int).Mul(kk, uint256.NewInt(initialPrice))

	offset := new(uint256.Int).Mul(kk, uint256.NewInt(sold))
	triangle := uint256.NewInt(0)
	if k > 0 {
		triangle.Mul(kk, uint256.NewInt(k-1))
		triangle.Rsh(triangle, 1)
	}
	offset.Add(offset, triangle)
	if offset.BitLen() > accumulatorBits {
		return nil, false
	}

	growth := new(uint256.Int).Mul(offset, uint256.NewInt(slope))
	if growth.BitLen() > accumulatorBits {
		return nil, false
	}

	total := new(uint256.Int).Add(base, growth)
	if total.BitLen() > accumulatorBits {
		return nil, false
	}
	return total, true
}
