package affiliate

import (
	"errors"
	"math"
	"testing"
	"time"

	coreerrors "launchpad/core/errors"
	"launchpad/native/token"
)

type balanceKey struct {
	mint  [20]byte
	owner [20]byte
}

type mockState struct {
	affiliates map[[20]byte]*Affiliate
	mints      map[[20]byte]*token.Mint
	balances   map[balanceKey]uint64
}

func newMockState() *mockState {
	return &mockState{
		affiliates: make(map[[20]byte]*Affiliate),
		mints:      make(map[[20]byte]*token.Mint),
		balances:   make(map[balanceKey]uint64),
	}
}

func (m *mockState) AffiliateGet(addr [20]byte) (*Affiliate, bool, error) {
	record, ok := m.affiliates[addr]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) AffiliatePut(addr [20]byte, record *Affiliate) error {
	m.affiliates[addr] = record.Clone()
	return nil
}

func (m *mockState) TokenMintGet(addr [20]byte) (*token.Mint, bool, error) {
	mint, ok := m.mints[addr]
	if !ok {
		return nil, false, nil
	}
	return mint.Clone(), true, nil
}

func (m *mockState) TokenMintPut(mint *token.Mint) error {
	m.mints[mint.Address] = mint.Clone()
	return nil
}

func (m *mockState) TokenBalance(mint [20]byte, owner [20]byte) (uint64, error) {
	return m.balances[balanceKey{mint, owner}], nil
}

func (m *mockState) TokenSetBalance(mint [20]byte, owner [20]byte, amount uint64) error {
	m.balances[balanceKey{mint, owner}] = amount
	return nil
}

type fixture struct {
	state    *mockState
	tokens   *token.Engine
	engine   *Engine
	sale     *token.Program
	mint     [20]byte
	clock    int64
	authSeed []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{state: newMockState(), clock: 1_700_000_000, authSeed: []byte("launch")}
	now := func() int64 { return f.clock }

	f.tokens = token.NewEngine()
	f.tokens.SetState(f.state)
	f.tokens.SetNowFunc(now)

	sale, err := f.tokens.RegisterProgram("sale")
	if err != nil {
		t.Fatalf("register sale program: %v", err)
	}
	f.sale = sale
	program, err := f.tokens.RegisterProgram(ProgramName)
	if err != nil {
		t.Fatalf("register affiliate program: %v", err)
	}

	f.mint = sale.Derive([]byte("mint"))
	if _, err := f.tokens.CreateMint(f.mint, sale.Derive(f.authSeed), "GEN", 9); err != nil {
		t.Fatalf("create mint: %v", err)
	}

	f.engine = NewEngine(program)
	f.engine.SetState(f.state)
	f.engine.SetTokens(f.tokens)
	f.engine.SetNowFunc(now)
	return f
}

func (f *fixture) register(t *testing.T, key [20]byte) *Affiliate {
	t.Helper()
	record, err := f.engine.Register(key, RegisterParams{ReferralLevel: 1})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return record
}

func (f *fixture) signer() *token.Signer {
	return f.sale.Signer(f.authSeed)
}

func TestCommissionExactness(t *testing.T) {
	tests := []struct {
		units uint64
		rate  uint16
		want  uint64
	}{
		{units: 19, rate: 1000, want: 1},
		{units: 12345, rate: 0, want: 0},
		{units: 12345, rate: 10000, want: 12345},
		{units: 9999, rate: 1, want: 0},
		{units: math.MaxUint64, rate: 10000, want: math.MaxUint64},
		{units: math.MaxUint64, rate: 5000, want: math.MaxUint64 / 2},
	}
	for _, tc := range tests {
		got, err := Commission(tc.units, tc.rate)
		if err != nil {
			t.Fatalf("commission(%d,%d): %v", tc.units, tc.rate, err)
		}
		if got != tc.want {
			t.Fatalf("commission(%d,%d) = %d, want %d", tc.units, tc.rate, got, tc.want)
		}
	}
	if _, err := Commission(1, 10001); !errors.Is(err, coreerrors.ErrInvalidRate) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
}

func TestSettleReferenceScenario(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0xaa}
	record := f.register(t, affiliate)
	if record.CommissionRateBps != DefaultCommissionBps {
		t.Fatalf("unexpected default rate %d", record.CommissionRateBps)
	}

	settlement, err := f.engine.Settle(f.signer(), f.mint, 19, affiliate)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settlement.Commission != 1 || settlement.TotalVolume != 19 {
		t.Fatalf("unexpected settlement: %+v", settlement)
	}
	balance, _ := f.tokens.Balance(f.mint, affiliate)
	if balance != 1 {
		t.Fatalf("expected commission balance 1, got %d", balance)
	}
	stored, err := f.engine.Lookup(affiliate)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if stored.TotalReferredVolume != 19 || stored.SuccessfulReferrals != 1 {
		t.Fatalf("unexpected record: %+v", stored)
	}
}

func TestSettleZeroCommissionSkipsIssuance(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0xab}
	f.register(t, affiliate)
	if _, err := f.engine.SetCommissionRate(affiliate, 0); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	signer := f.signer()
	settlement, err := f.engine.Settle(signer, f.mint, 500, affiliate)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if settlement.Commission != 0 || settlement.TotalVolume != 500 {
		t.Fatalf("unexpected settlement: %+v", settlement)
	}
	if signer.Spent() {
		t.Fatalf("signer must not be consumed when no commission is due")
	}
	supply, _ := f.tokens.Supply(f.mint)
	if supply != 0 {
		t.Fatalf("expected no issuance, supply %d", supply)
	}
}

func TestSettleMismatchMutatesNothing(t *testing.T) {
	f := newFixture(t)
	owner := [20]byte{0x01}
	impostor := [20]byte{0x02}
	f.register(t, owner)
	f.register(t, impostor)

	before, _ := f.engine.Lookup(owner)
	_, err := f.engine.SettleAt(f.signer(), f.mint, 19, f.engine.RecordAddress(owner), impostor)
	if !errors.Is(err, coreerrors.ErrAffiliateMismatch) {
		t.Fatalf("expected affiliate mismatch, got %v", err)
	}
	after, _ := f.engine.Lookup(owner)
	if *before != *after {
		t.Fatalf("record mutated: before %+v after %+v", before, after)
	}
	for _, key := range [][20]byte{owner, impostor} {
		if balance, _ := f.tokens.Balance(f.mint, key); balance != 0 {
			t.Fatalf("unexpected balance %d", balance)
		}
	}
}

func TestSettleRejectsForeignSigner(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x03}
	f.register(t, affiliate)
	if _, err := f.engine.Settle(f.sale.Signer([]byte("vault")), f.mint, 100, affiliate); !errors.Is(err, coreerrors.ErrAuthorityMismatch) {
		t.Fatalf("expected authority mismatch, got %v", err)
	}
	if _, err := f.engine.Settle(f.signer(), f.mint, 100, [20]byte{0x04}); !errors.Is(err, coreerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetCommissionRateRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x05}
	before := f.register(t, affiliate)

	if _, err := f.engine.SetCommissionRate(affiliate, 10001); !errors.Is(err, coreerrors.ErrInvalidRate) {
		t.Fatalf("expected invalid rate, got %v", err)
	}
	after, _ := f.engine.Lookup(affiliate)
	if *before != *after {
		t.Fatalf("record mutated: before %+v after %+v", before, after)
	}

	updated, err := f.engine.SetCommissionRate(affiliate, 10000)
	if err != nil {
		t.Fatalf("set rate: %v", err)
	}
	if updated.CommissionRateBps != 10000 {
		t.Fatalf("unexpected rate %d", updated.CommissionRateBps)
	}
}

func TestUpdateCommissionRateEnforcesCapsAndInterval(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x06}
	record, err := f.engine.Register(affiliate, RegisterParams{
		ReferralLevel:   2,
		RateCapsEnabled: true,
		MinRateBps:      200,
		MaxRateBps:      800,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if record.CommissionRateBps != 800 {
		t.Fatalf("expected default rate clamped to cap, got %d", record.CommissionRateBps)
	}

	if _, err := f.engine.UpdateCommissionRate(affiliate, 500); !errors.Is(err, coreerrors.ErrRateUpdateNotAllowed) {
		t.Fatalf("expected interval rejection, got %v", err)
	}
	f.clock += int64(DefaultRateUpdateInterval / time.Second)

	if _, err := f.engine.UpdateCommissionRate(affiliate, 900); !errors.Is(err, coreerrors.ErrInvalidRate) {
		t.Fatalf("expected cap rejection, got %v", err)
	}
	updated, err := f.engine.UpdateCommissionRate(affiliate, 500)
	if err != nil {
		t.Fatalf("update rate: %v", err)
	}
	if updated.CommissionRateBps != 500 || updated.LastRateUpdateAt != uint64(f.clock) {
		t.Fatalf("unexpected record: %+v", updated)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	caller := [20]byte{0x07}
	if _, err := f.engine.Register(caller, RegisterParams{ReferralLevel: 0}); !errors.Is(err, coreerrors.ErrInvalidAmount) {
		t.Fatalf("expected invalid level, got %v", err)
	}
	if _, err := f.engine.Register(caller, RegisterParams{ReferralLevel: 1, Parent: &caller}); !errors.Is(err, coreerrors.ErrInvalidAmount) {
		t.Fatalf("expected circular referral rejection, got %v", err)
	}
	missing := [20]byte{0x08}
	if _, err := f.engine.Register(caller, RegisterParams{ReferralLevel: 1, Parent: &missing}); !errors.Is(err, coreerrors.ErrNotFound) {
		t.Fatalf("expected missing parent, got %v", err)
	}
	if _, err := f.engine.Register(caller, RegisterParams{ReferralLevel: 1, RateCapsEnabled: true, MinRateBps: 900, MaxRateBps: 100}); !errors.Is(err, coreerrors.ErrInvalidRate) {
		t.Fatalf("expected invalid caps, got %v", err)
	}
	f.register(t, caller)
	if _, err := f.engine.Register(caller, RegisterParams{ReferralLevel: 1}); !errors.Is(err, coreerrors.ErrAlreadyExists) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestCreditVolumeOverflow(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x09}
	f.register(t, affiliate)
	if _, err := f.engine.CreditVolume(affiliate, math.MaxUint64); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := f.engine.CreditVolume(affiliate, 1); !errors.Is(err, coreerrors.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	record, _ := f.engine.Lookup(affiliate)
	if record.TotalReferredVolume != math.MaxUint64 || record.SuccessfulReferrals != 1 {
		t.Fatalf("unexpected record after overflow: %+v", record)
	}
}

func TestTierProgressionDrivesSuggestedRate(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x0a}
	f.register(t, affiliate)

	rate, record, err := f.engine.SuggestedRate(affiliate)
	if err != nil {
		t.Fatalf("suggested rate: %v", err)
	}
	if rate != 500 || record.Tier != TierBronze {
		t.Fatalf("unexpected bronze suggestion %d tier %s", rate, record.Tier)
	}

	for i := 0; i < 10; i++ {
		if _, err := f.engine.CreditVolume(affiliate, 1_000_000); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	_, record, _ = f.engine.SuggestedRate(affiliate)
	if record.Tier != TierBronze {
		t.Fatalf("volume without conversion data should stay bronze, got %s", record.Tier)
	}

	// 10 referrals over 500 clicks is a 2% conversion.
	if _, err := f.engine.RecordClicks(affiliate, 500); err != nil {
		t.Fatalf("record clicks: %v", err)
	}
	rate, record, _ = f.engine.SuggestedRate(affiliate)
	if record.ConversionRateBps != 200 {
		t.Fatalf("unexpected conversion %d", record.ConversionRateBps)
	}
	if record.Tier != TierSilver || rate != 750 {
		t.Fatalf("expected silver tier, got %s rate %d", record.Tier, rate)
	}
	if record.PerformanceScore != (10+20+1)*2 {
		t.Fatalf("unexpected score %d", record.PerformanceScore)
	}

	if _, err := f.engine.CreditVolume(affiliate, platinumVolume); err != nil {
		t.Fatalf("credit: %v", err)
	}
	rate, record, _ = f.engine.SuggestedRate(affiliate)
	if record.ConversionRateBps != 220 {
		t.Fatalf("settlement should refresh conversion, got %d", record.ConversionRateBps)
	}
	if record.Tier != TierPlatinum || rate != 1250 {
		t.Fatalf("expected platinum tier, got %s rate %d", record.Tier, rate)
	}
}

func TestGoldTierRequiresConversion(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x0b}
	f.register(t, affiliate)
	for i := 0; i < 5; i++ {
		if _, err := f.engine.CreditVolume(affiliate, goldVolume/5); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	if _, err := f.engine.RecordClicks(affiliate, 250); err != nil {
		t.Fatalf("record clicks: %v", err)
	}
	rate, record, _ := f.engine.SuggestedRate(affiliate)
	if record.ConversionRateBps != 200 || record.Tier != TierSilver || rate != 750 {
		t.Fatalf("expected silver at 2%% conversion, got %s conversion %d rate %d", record.Tier, record.ConversionRateBps, rate)
	}

	// Same volume with 5 referrals over 100 clicks qualifies for gold and the
	// strong-conversion bonus.
	other := [20]byte{0x0c}
	f.register(t, other)
	for i := 0; i < 5; i++ {
		if _, err := f.engine.CreditVolume(other, goldVolume/5); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}
	if _, err := f.engine.RecordClicks(other, 100); err != nil {
		t.Fatalf("record clicks: %v", err)
	}
	rate, record, _ = f.engine.SuggestedRate(other)
	if record.Tier != TierGold || rate != 1100 {
		t.Fatalf("expected gold with bonus, got %s rate %d", record.Tier, rate)
	}
	if record.PerformanceScore != (100+50+0)*3 {
		t.Fatalf("unexpected score %d", record.PerformanceScore)
	}
}

func TestWeakConversionLowersSuggestion(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x0d}
	f.register(t, affiliate)
	if _, err := f.engine.CreditVolume(affiliate, 1); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := f.engine.RecordClicks(affiliate, 1000); err != nil {
		t.Fatalf("record clicks: %v", err)
	}
	rate, record, _ := f.engine.SuggestedRate(affiliate)
	if record.ConversionRateBps != 10 || rate != 450 {
		t.Fatalf("expected 450 at 0.1%% conversion, got %d (conversion %d)", rate, record.ConversionRateBps)
	}
}

func TestSuggestedRateAdjustments(t *testing.T) {
	low := &Affiliate{Tier: TierBronze, TotalClicks: 10}
	if got := suggestedRate(low); got != 450 {
		t.Fatalf("unexpected bronze rate %d", got)
	}
	high := &Affiliate{Tier: TierPlatinum, TotalClicks: 10, ConversionRateBps: 9000}
	if got := suggestedRate(high); got != 1350 {
		t.Fatalf("unexpected platinum rate %d", got)
	}
	if got := conversionRate(50, 10); got != MaxRateBps {
		t.Fatalf("conversion should cap at %d, got %d", MaxRateBps, got)
	}
}

func TestRecordClicks(t *testing.T) {
	f := newFixture(t)
	affiliate := [20]byte{0x0e}
	if _, err := f.engine.RecordClicks(affiliate, 1); !errors.Is(err, coreerrors.ErrNotFound) {
		t.Fatalf("expected unregistered caller to fail, got %v", err)
	}
	f.register(t, affiliate)
	if _, err := f.engine.RecordClicks(affiliate, 0); !errors.Is(err, coreerrors.ErrInvalidAmount) {
		t.Fatalf("expected zero clicks rejected, got %v", err)
	}
	f.clock += 60
	record, err := f.engine.RecordClicks(affiliate, math.MaxUint32-1)
	if err != nil {
		t.Fatalf("record clicks: %v", err)
	}
	if record.TotalReferredVolume != 0 || record.SuccessfulReferrals != 0 {
		t.Fatalf("clicks must not move referred volume: %+v", record)
	}
	if record.LastActivityAt != uint64(f.clock) {
		t.Fatalf("expected activity at %d, got %d", f.clock, record.LastActivityAt)
	}
	if _, err := f.engine.RecordClicks(affiliate, 2); !errors.Is(err, coreerrors.ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	stored, _ := f.engine.Lookup(affiliate)
	if stored.TotalClicks != math.MaxUint32-1 {
		t.Fatalf("overflowing report must not change clicks, got %d", stored.TotalClicks)
	}
}
