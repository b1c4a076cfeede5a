package launchpad

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	coreerrors "launchpad/core/errors"
	"launchpad/core/events"
	"launchpad/native/affiliate"
	"launchpad/native/pricing"
	"launchpad/native/token"
)

var (
	errNilState       = errors.New("launchpad engine: state not configured")
	errNilTokens      = errors.New("launchpad engine: token engine not configured")
	errNilProgram     = errors.New("launchpad engine: program not configured")
	errNoPaymentMint  = errors.New("launchpad engine: payment mint not configured")
	errSymbolRequired = errors.New("launchpad engine: symbol required")
)

const (
	// DefaultMinVestingDuration bounds the shortest vesting schedule.
	DefaultMinVestingDuration = 24 * time.Hour
	// DefaultMaxVestingDuration bounds the longest vesting schedule.
	DefaultMaxVestingDuration = 4 * 365 * 24 * time.Hour
)

type engineState interface {
	LaunchGet(addr [20]byte) (*Launch, bool, error)
	LaunchPut(launch *Launch) error
	VestingGet(addr [20]byte) (*VestingSchedule, bool, error)
	VestingPut(schedule *VestingSchedule) error
}

type tokenLedger interface {
	CreateMint(mint [20]byte, authority [20]byte, symbol string, decimals uint8) (*token.Mint, error)
	MintTo(signer *token.Signer, mint [20]byte, to [20]byte, amount uint64) error
	Transfer(from [20]byte, mint [20]byte, to [20]byte, amount uint64) error
	TransferSigned(signer *token.Signer, mint [20]byte, to [20]byte, amount uint64) error
	Balance(mint [20]byte, owner [20]byte) (uint64, error)
}

type commissionSettler interface {
	Lookup(key [20]byte) (*affiliate.Affiliate, error)
	Settle(signer *token.Signer, mint [20]byte, purchasedUnits uint64, affiliate [20]byte) (*affiliate.Settlement, error)
}

// Engine runs the bonding curve sales. It owns the mint authority of every
// launched asset and the payment vaults through its program identity.
type Engine struct {
	state       engineState
	tokens      tokenLedger
	affiliates  commissionSettler
	program     *token.Program
	emitter     events.Emitter
	nowFn       func() int64
	paymentMint [20]byte
	hasPayment  bool
	minVesting  time.Duration
	maxVesting  time.Duration
}

// NewEngine constructs a launchpad engine bound to its program identity.
func NewEngine(program *token.Program) *Engine {
	return &Engine{
		program:    program,
		emitter:    events.NoopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		minVesting: DefaultMinVestingDuration,
		maxVesting: DefaultMaxVestingDuration,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokens configures the token engine.
func (e *Engine) SetTokens(tokens tokenLedger) { e.tokens = tokens }

// SetAffiliates configures the commission settlement module.
func (e *Engine) SetAffiliates(settler commissionSettler) { e.affiliates = settler }

// SetPaymentMint configures the asset accepted as payment.
func (e *Engine) SetPaymentMint(mint [20]byte) {
	e.paymentMint = mint
	e.hasPayment = true
}

// PaymentMint returns the configured payment asset.
func (e *Engine) PaymentMint() [20]byte { return e.paymentMint }

// SetVestingBounds configures the accepted vesting durations.
func (e *Engine) SetVestingBounds(lower, upper time.Duration) {
	e.minVesting = lower
	e.maxVesting = upper
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// CreateLaunch opens a sale for a new asset. The caller becomes the authority
// and the derived launch address becomes the asset's mint authority.
func (e *Engine) CreateLaunch(caller [20]byte, mint [20]byte, params CreateLaunchParams) (*Launch, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Symbol) == "" {
		return nil, errSymbolRequired
	}
	if params.InitialPrice == 0 {
		return nil, fmt.Errorf("launchpad engine: initial price must be positive: %w", coreerrors.ErrInvalidAmount)
	}
	if params.MaxPayment != 0 && params.MinPayment > params.MaxPayment {
		return nil, fmt.Errorf("launchpad engine: payment bounds [%d,%d]: %w", params.MinPayment, params.MaxPayment, coreerrors.ErrInvalidAmount)
	}
	now := e.now()
	if params.StartTime != 0 && params.StartTime < now {
		return nil, fmt.Errorf("launchpad engine: start time in the past: %w", coreerrors.ErrInvalidLaunchWindow)
	}
	if params.EndTime != 0 && params.EndTime <= maxUint64(params.StartTime, now) {
		return nil, fmt.Errorf("launchpad engine: end time not after start: %w", coreerrors.ErrInvalidLaunchWindow)
	}
	if params.VestingEnabled {
		if err := e.validateVesting(params.VestingDuration, params.VestingCliff); err != nil {
			return nil, err
		}
	}

	addr := e.LaunchAddress(caller, mint)
	if _, exists, err := e.state.LaunchGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("launchpad engine: launch: %w", coreerrors.ErrAlreadyExists)
	}
	if _, err := e.tokens.CreateMint(mint, addr, params.Symbol, params.Decimals); err != nil {
		return nil, fmt.Errorf("launchpad engine: create mint: %w", err)
	}

	launch := &Launch{
		Address:        addr,
		Authority:      caller,
		Mint:           mint,
		Vault:          e.VaultAddress(addr),
		InitialPrice:   params.InitialPrice,
		Slope:          params.Slope,
		StartTime:      params.StartTime,
		EndTime:        params.EndTime,
		MinPayment:     params.MinPayment,
		MaxPayment:     params.MaxPayment,
		VestingEnabled: params.VestingEnabled,
		CreatedAt:      now,
	}
	if params.VestingEnabled {
		launch.VestingDuration = params.VestingDuration
		launch.VestingCliff = params.VestingCliff
	}
	if err := e.state.LaunchPut(launch); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.LaunchCreated{
		Launch:       addr,
		Authority:    caller,
		Mint:         mint,
		Vault:        launch.Vault,
		InitialPrice: launch.InitialPrice,
		Slope:        launch.Slope,
	})
	return launch.Clone(), nil
}

// Purchase prices the payment against the curve and settles the buy: the
// sold counter advances, units are minted to the buyer (or its vesting
// account), the exact cost moves into the vault and, when an affiliate is
// named, the commission is settled. Only the cost leaves the buyer; the
// unspent remainder of the payment stays in the buyer's balance.
func (e *Engine) Purchase(req PurchaseRequest) (*PurchaseResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	launch, err := e.load(req.Launch)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if err := checkWindow(launch, now); err != nil {
		return nil, err
	}
	if req.Payment == 0 {
		return nil, fmt.Errorf("launchpad engine: zero payment: %w", coreerrors.ErrInvalidAmount)
	}
	if launch.MinPayment != 0 && req.Payment < launch.MinPayment {
		return nil, fmt.Errorf("launchpad engine: payment below minimum %d: %w", launch.MinPayment, coreerrors.ErrInvalidAmount)
	}
	if launch.MaxPayment != 0 && req.Payment > launch.MaxPayment {
		return nil, fmt.Errorf("launchpad engine: payment above maximum %d: %w", launch.MaxPayment, coreerrors.ErrInvalidAmount)
	}
	if req.Vest && !launch.VestingEnabled {
		return nil, fmt.Errorf("launchpad engine: launch does not vest: %w", coreerrors.ErrInvalidVesting)
	}
	if req.Affiliate != nil {
		if e.affiliates == nil {
			return nil, fmt.Errorf("launchpad engine: affiliate settlement unavailable: %w", coreerrors.ErrNotFound)
		}
		if _, err := e.affiliates.Lookup(*req.Affiliate); err != nil {
			return nil, fmt.Errorf("launchpad engine: affiliate: %w", err)
		}
	}

	curve := pricing.Curve{InitialPrice: launch.InitialPrice, Slope: launch.Slope}
	quote, err := curve.Quote(launch.UnitsSold, req.Payment)
	if err != nil {
		return nil, fmt.Errorf("launchpad engine: quote: %w", err)
	}
	if launch.UnitsSold > math.MaxUint64-quote.Units {
		return nil, fmt.Errorf("launchpad engine: units sold: %w", coreerrors.ErrOverflow)
	}
	if launch.TotalCollected > math.MaxUint64-quote.Cost {
		return nil, fmt.Errorf("launchpad engine: total collected: %w", coreerrors.ErrOverflow)
	}
	priceBefore, err := curve.PriceAt(launch.UnitsSold)
	if err != nil {
		return nil, err
	}

	if err := e.tokens.Transfer(req.Buyer, e.paymentMint, launch.Vault, quote.Cost); err != nil {
		return nil, fmt.Errorf("launchpad engine: collect payment: %w", err)
	}

	launch.UnitsSold += quote.Units
	launch.TotalCollected += quote.Cost
	launch.PurchaseCount++
	launch.LastPurchaseAt = now
	if err := e.state.LaunchPut(launch); err != nil {
		return nil, err
	}

	recipient := req.Buyer
	var schedule *VestingSchedule
	if req.Vest {
		schedule, err = e.vestingFor(launch, req.Buyer, now)
		if err != nil {
			return nil, err
		}
		if schedule.Total > math.MaxUint64-quote.Units {
			return nil, fmt.Errorf("launchpad engine: vesting total: %w", coreerrors.ErrOverflow)
		}
		recipient = schedule.Account
	}
	if err := e.tokens.MintTo(e.launchSigner(launch), launch.Mint, recipient, quote.Units); err != nil {
		return nil, fmt.Errorf("launchpad engine: issue units: %w", err)
	}
	if schedule != nil {
		schedule.Total += quote.Units
		if err := e.state.VestingPut(schedule); err != nil {
			return nil, err
		}
	}

	result := &PurchaseResult{
		Units:       quote.Units,
		Cost:        quote.Cost,
		UnitsSold:   launch.UnitsSold,
		PriceBefore: priceBefore,
		PriceAfter:  saturatingPrice(curve, launch.UnitsSold),
		Vested:      schedule != nil,
	}
	evt := events.LaunchPurchased{
		Launch:    launch.Address,
		Buyer:     req.Buyer,
		Units:     quote.Units,
		Cost:      quote.Cost,
		UnitsSold: launch.UnitsSold,
		Vested:    result.Vested,
	}
	if req.Affiliate != nil {
		settlement, err := e.affiliates.Settle(e.launchSigner(launch), launch.Mint, quote.Units, *req.Affiliate)
		if err != nil {
			return nil, fmt.Errorf("launchpad engine: settle commission: %w", err)
		}
		result.Commission = settlement.Commission
		evt.Affiliate = *req.Affiliate
		evt.HasAffiliate = true
		evt.Commission = settlement.Commission
	}
	e.emitter.Emit(evt)
	return result, nil
}

// Withdraw moves the whole payment vault of a launch to its authority.
func (e *Engine) Withdraw(caller [20]byte, launchAddr [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	launch, err := e.load(launchAddr)
	if err != nil {
		return 0, err
	}
	if caller != launch.Authority {
		return 0, fmt.Errorf("launchpad engine: withdraw: %w", coreerrors.ErrAuthorityMismatch)
	}
	balance, err := e.tokens.Balance(e.paymentMint, launch.Vault)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, fmt.Errorf("launchpad engine: vault empty: %w", coreerrors.ErrInvalidAmount)
	}
	signer := e.program.Signer(vaultSeeds(launch.Address)...)
	if err := e.tokens.TransferSigned(signer, e.paymentMint, launch.Authority, balance); err != nil {
		return 0, fmt.Errorf("launchpad engine: withdraw: %w", err)
	}
	e.emitter.Emit(events.LaunchWithdrawn{Launch: launch.Address, Authority: launch.Authority, Amount: balance})
	return balance, nil
}

// UpdateLaunch changes the sale window end or the payment bounds. Curve
// parameters are immutable.
func (e *Engine) UpdateLaunch(caller [20]byte, launchAddr [20]byte, params UpdateLaunchParams) (*Launch, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	launch, err := e.load(launchAddr)
	if err != nil {
		return nil, err
	}
	if caller != launch.Authority {
		return nil, fmt.Errorf("launchpad engine: update: %w", coreerrors.ErrAuthorityMismatch)
	}
	now := e.now()
	if params.EndTime != nil {
		end := *params.EndTime
		if end != 0 && (end <= now || end <= launch.StartTime) {
			return nil, fmt.Errorf("launchpad engine: end time %d: %w", end, coreerrors.ErrInvalidLaunchWindow)
		}
		launch.EndTime = end
	}
	if params.MinPayment != nil {
		launch.MinPayment = *params.MinPayment
	}
	if params.MaxPayment != nil {
		launch.MaxPayment = *params.MaxPayment
	}
	if launch.MaxPayment != 0 && launch.MinPayment > launch.MaxPayment {
		return nil, fmt.Errorf("launchpad engine: payment bounds [%d,%d]: %w", launch.MinPayment, launch.MaxPayment, coreerrors.ErrInvalidAmount)
	}
	if err := e.state.LaunchPut(launch); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.LaunchUpdated{
		Launch:     launch.Address,
		EndTime:    launch.EndTime,
		MinPayment: launch.MinPayment,
		MaxPayment: launch.MaxPayment,
	})
	return launch.Clone(), nil
}

// ClaimVested releases the vested but unclaimed units of beneficiary.
func (e *Engine) ClaimVested(beneficiary [20]byte, launchAddr [20]byte) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	launch, err := e.load(launchAddr)
	if err != nil {
		return 0, err
	}
	schedule, ok, err := e.state.VestingGet(e.VestingAddress(launch.Address, beneficiary))
	if err != nil {
		return 0, err
	}
	if !ok || schedule == nil {
		return 0, fmt.Errorf("launchpad engine: vesting schedule: %w", coreerrors.ErrNotFound)
	}
	claimable := schedule.Claimable(e.now())
	if claimable == 0 {
		return 0, fmt.Errorf("launchpad engine: claim: %w", coreerrors.ErrNothingToClaim)
	}
	signer := e.program.Signer(vestingSeeds(launch.Address, beneficiary)...)
	if err := e.tokens.TransferSigned(signer, launch.Mint, beneficiary, claimable); err != nil {
		return 0, fmt.Errorf("launchpad engine: release vested units: %w", err)
	}
	schedule.Claimed += claimable
	if err := e.state.VestingPut(schedule); err != nil {
		return 0, err
	}
	e.emitter.Emit(events.VestingClaimed{
		Launch:      launch.Address,
		Beneficiary: beneficiary,
		Amount:      claimable,
		Claimed:     schedule.Claimed,
		Total:       schedule.Total,
	})
	return claimable, nil
}

// Launch returns the ledger stored at addr.
func (e *Engine) Launch(addr [20]byte) (*Launch, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.load(addr)
}

// Vesting returns the schedule of beneficiary in launch.
func (e *Engine) Vesting(launchAddr, beneficiary [20]byte) (*VestingSchedule, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	schedule, ok, err := e.state.VestingGet(e.VestingAddress(launchAddr, beneficiary))
	if err != nil {
		return nil, err
	}
	if !ok || schedule == nil {
		return nil, fmt.Errorf("launchpad engine: vesting schedule: %w", coreerrors.ErrNotFound)
	}
	return schedule, nil
}

// PriceAt returns the curve price at position n of the launch.
func (e *Engine) PriceAt(launchAddr [20]byte, n uint64) (uint64, error) {
	launch, err := e.Launch(launchAddr)
	if err != nil {
		return 0, err
	}
	return pricing.PriceAt(launch.InitialPrice, launch.Slope, n)
}

// CurrentPrice returns the price of the next unit of the launch.
func (e *Engine) CurrentPrice(launchAddr [20]byte) (uint64, error) {
	launch, err := e.Launch(launchAddr)
	if err != nil {
		return 0, err
	}
	return pricing.PriceAt(launch.InitialPrice, launch.Slope, launch.UnitsSold)
}

// QuotePurchase previews a purchase without touching state.
func (e *Engine) QuotePurchase(launchAddr [20]byte, payment uint64) (pricing.Quote, error) {
	launch, err := e.Launch(launchAddr)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.QuotePurchase(launch.InitialPrice, launch.Slope, launch.UnitsSold, payment)
}

// VaultBalance returns the payment collected and not yet withdrawn.
func (e *Engine) VaultBalance(launchAddr [20]byte) (uint64, error) {
	launch, err := e.Launch(launchAddr)
	if err != nil {
		return 0, err
	}
	return e.tokens.Balance(e.paymentMint, launch.Vault)
}

func (e *Engine) launchSigner(launch *Launch) *token.Signer {
	return e.program.Signer(launchSeeds(launch.Authority, launch.Mint)...)
}

func (e *Engine) vestingFor(launch *Launch, beneficiary [20]byte, now uint64) (*VestingSchedule, error) {
	addr := e.VestingAddress(launch.Address, beneficiary)
	schedule, ok, err := e.state.VestingGet(addr)
	if err != nil {
		return nil, err
	}
	if ok && schedule != nil {
		return schedule, nil
	}
	return &VestingSchedule{
		Launch:      launch.Address,
		Beneficiary: beneficiary,
		Account:     addr,
		StartTime:   now,
		Cliff:       launch.VestingCliff,
		Duration:    launch.VestingDuration,
	}, nil
}

func (e *Engine) validateVesting(duration, cliff uint64) error {
	lower := uint64(e.minVesting / time.Second)
	upper := uint64(e.maxVesting / time.Second)
	if duration < lower || duration > upper {
		return fmt.Errorf("launchpad engine: vesting duration %d outside [%d,%d]: %w", duration, lower, upper, coreerrors.ErrInvalidVesting)
	}
	if cliff > duration {
		return fmt.Errorf("launchpad engine: cliff %d exceeds duration %d: %w", cliff, duration, coreerrors.ErrInvalidVesting)
	}
	return nil
}

func (e *Engine) load(addr [20]byte) (*Launch, error) {
	launch, ok, err := e.state.LaunchGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok || launch == nil {
		return nil, fmt.Errorf("launchpad engine: launch: %w", coreerrors.ErrNotFound)
	}
	return launch, nil
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.tokens == nil {
		return errNilTokens
	}
	if e.program == nil {
		return errNilProgram
	}
	if !e.hasPayment {
		return errNoPaymentMint
	}
	return nil
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func checkWindow(launch *Launch, now uint64) error {
	if launch.StartTime != 0 && now < launch.StartTime {
		return fmt.Errorf("launchpad engine: sale opens at %d: %w", launch.StartTime, coreerrors.ErrInvalidLaunchWindow)
	}
	if launch.EndTime != 0 && now >= launch.EndTime {
		return fmt.Errorf("launchpad engine: sale closed at %d: %w", launch.EndTime, coreerrors.ErrInvalidLaunchWindow)
	}
	return nil
}

// saturatingPrice reports the next unit price for display; positions past the
// representable range report MaxUint64.
func saturatingPrice(curve pricing.Curve, n uint64) uint64 {
	price, err := curve.PriceAt(n)
	if err != nil {
		return math.MaxUint64
	}
	return price
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
