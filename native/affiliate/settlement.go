package affiliate

import (
	"fmt"

	"github.com/holiman/uint256"

	coreerrors "launchpad/core/errors"
	"launchpad/core/events"
	"launchpad/native/token"
)

var bpsDenominator = uint256.NewInt(uint64(MaxRateBps))

// Commission returns floor(units*rateBps/10000) computed in a wide
// intermediate.
func Commission(units uint64, rateBps uint16) (uint64, error) {
	if rateBps > MaxRateBps {
		return 0, fmt.Errorf("affiliate engine: rate %d: %w", rateBps, coreerrors.ErrInvalidRate)
	}
	product := new(uint256.Int).Mul(uint256.NewInt(units), uint256.NewInt(uint64(rateBps)))
	product.Div(product, bpsDenominator)
	if !product.IsUint64() {
		return 0, fmt.Errorf("affiliate engine: commission: %w", coreerrors.ErrOverflow)
	}
	return product.Uint64(), nil
}

// Settle pays the referral commission for purchasedUnits of mint to affiliate
// and credits the referred volume. The signer must speak for the mint
// authority; it is only used when the commission is non-zero.
func (e *Engine) Settle(signer *token.Signer, mint [20]byte, purchasedUnits uint64, affiliate [20]byte) (*Settlement, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.SettleAt(signer, mint, purchasedUnits, e.RecordAddress(affiliate), affiliate)
}

// SettleAt is Settle against an explicitly supplied record address. The
// record stored there must belong to affiliate.
func (e *Engine) SettleAt(signer *token.Signer, mint [20]byte, purchasedUnits uint64, recordAddr [20]byte, affiliate [20]byte) (*Settlement, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.tokens == nil {
		return nil, errNilTokens
	}
	record, _, err := e.load(recordAddr)
	if err != nil {
		return nil, err
	}
	if record.Key != affiliate || recordAddr != e.RecordAddress(affiliate) {
		return nil, fmt.Errorf("affiliate engine: settle: %w", coreerrors.ErrAffiliateMismatch)
	}
	commission, err := Commission(purchasedUnits, record.CommissionRateBps)
	if err != nil {
		return nil, err
	}
	if err := e.credit(record, purchasedUnits); err != nil {
		return nil, err
	}
	if commission > 0 {
		if err := e.tokens.MintTo(signer, mint, affiliate, commission); err != nil {
			return nil, fmt.Errorf("affiliate engine: issue commission: %w", err)
		}
	}
	if err := e.state.AffiliatePut(recordAddr, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.CommissionSettled{
		Affiliate:      affiliate,
		Mint:           mint,
		PurchasedUnits: purchasedUnits,
		Commission:     commission,
		TotalVolume:    record.TotalReferredVolume,
	})
	return &Settlement{
		Affiliate:   affiliate,
		Commission:  commission,
		TotalVolume: record.TotalReferredVolume,
	}, nil
}
