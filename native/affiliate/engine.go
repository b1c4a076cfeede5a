package affiliate

import (
	"errors"
	"fmt"
	"math"
	"time"

	coreerrors "launchpad/core/errors"
	"launchpad/core/events"
	"launchpad/native/token"
)

var (
	errNilState   = errors.New("affiliate engine: state not configured")
	errNilTokens  = errors.New("affiliate engine: token engine not configured")
	errNilProgram = errors.New("affiliate engine: program not configured")
)

const (
	// DefaultCommissionBps is assigned to new affiliates unless configured.
	DefaultCommissionBps uint16 = 1000
	// DefaultRateUpdateInterval is the minimum spacing between capped rate
	// updates.
	DefaultRateUpdateInterval = 24 * time.Hour
)

type engineState interface {
	AffiliateGet(addr [20]byte) (*Affiliate, bool, error)
	AffiliatePut(addr [20]byte, record *Affiliate) error
}

type tokenMinter interface {
	MintTo(signer *token.Signer, mint [20]byte, to [20]byte, amount uint64) error
}

// Engine maintains the affiliate registry and settles referral commissions on
// behalf of calling programs.
type Engine struct {
	state              engineState
	tokens             tokenMinter
	program            *token.Program
	emitter            events.Emitter
	nowFn              func() int64
	defaultRateBps     uint16
	rateUpdateInterval time.Duration
}

// NewEngine constructs an affiliate engine bound to its program identity.
func NewEngine(program *token.Program) *Engine {
	return &Engine{
		program:            program,
		emitter:            events.NoopEmitter{},
		nowFn:              func() int64 { return time.Now().Unix() },
		defaultRateBps:     DefaultCommissionBps,
		rateUpdateInterval: DefaultRateUpdateInterval,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokens configures the token engine used to issue commissions.
func (e *Engine) SetTokens(tokens tokenMinter) { e.tokens = tokens }

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

// SetDefaultRate configures the rate assigned at registration.
func (e *Engine) SetDefaultRate(bps uint16) error {
	if bps > MaxRateBps {
		return fmt.Errorf("affiliate engine: default rate %d: %w", bps, coreerrors.ErrInvalidRate)
	}
	e.defaultRateBps = bps
	return nil
}

// SetRateUpdateInterval configures the minimum spacing between capped rate
// updates.
func (e *Engine) SetRateUpdateInterval(interval time.Duration) {
	if interval < 0 {
		interval = 0
	}
	e.rateUpdateInterval = interval
}

// Register creates the registry entry for caller.
func (e *Engine) Register(caller [20]byte, params RegisterParams) (*Affiliate, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	addr := e.RecordAddress(caller)
	if _, exists, err := e.state.AffiliateGet(addr); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("affiliate engine: register: %w", coreerrors.ErrAlreadyExists)
	}
	if params.ReferralLevel < MinReferralLevel || params.ReferralLevel > MaxReferralLevel {
		return nil, fmt.Errorf("affiliate engine: referral level %d outside [%d,%d]: %w",
			params.ReferralLevel, MinReferralLevel, MaxReferralLevel, coreerrors.ErrInvalidAmount)
	}

	now := e.now()
	record := &Affiliate{
		Key:               caller,
		CommissionRateBps: e.defaultRateBps,
		MaxRateBps:        MaxRateBps,
		ReferralLevel:     params.ReferralLevel,
		RegisteredAt:      now,
		LastActivityAt:    now,
		LastRateUpdateAt:  now,
	}
	if params.Parent != nil {
		parent := *params.Parent
		if parent == caller {
			return nil, fmt.Errorf("affiliate engine: circular referral: %w", coreerrors.ErrInvalidAmount)
		}
		if _, exists, err := e.state.AffiliateGet(e.RecordAddress(parent)); err != nil {
			return nil, err
		} else if !exists {
			return nil, fmt.Errorf("affiliate engine: parent: %w", coreerrors.ErrNotFound)
		}
		record.Parent = parent
		record.HasParent = true
	}
	if params.RateCapsEnabled {
		if params.MinRateBps > params.MaxRateBps || params.MaxRateBps > MaxRateBps {
			return nil, fmt.Errorf("affiliate engine: rate caps [%d,%d]: %w",
				params.MinRateBps, params.MaxRateBps, coreerrors.ErrInvalidRate)
		}
		record.RateCapsEnabled = true
		record.MinRateBps = params.MinRateBps
		record.MaxRateBps = params.MaxRateBps
		if record.CommissionRateBps < record.MinRateBps {
			record.CommissionRateBps = record.MinRateBps
		}
		if record.CommissionRateBps > record.MaxRateBps {
			record.CommissionRateBps = record.MaxRateBps
		}
	}
	record.refreshPerformance()

	if err := e.state.AffiliatePut(addr, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AffiliateRegistered{
		Affiliate: caller,
		RateBps:   record.CommissionRateBps,
		Level:     record.ReferralLevel,
		Parent:    record.Parent,
		HasParent: record.HasParent,
	})
	return record.Clone(), nil
}

// Lookup returns the registry entry for key.
func (e *Engine) Lookup(key [20]byte) (*Affiliate, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	record, _, err := e.load(e.RecordAddress(key))
	return record, err
}

// SetCommissionRate replaces the caller's rate. Rates above 10000 bps are
// rejected and the record is left untouched.
func (e *Engine) SetCommissionRate(caller [20]byte, rateBps uint16) (*Affiliate, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if rateBps > MaxRateBps {
		return nil, fmt.Errorf("affiliate engine: rate %d: %w", rateBps, coreerrors.ErrInvalidRate)
	}
	record, addr, err := e.load(e.RecordAddress(caller))
	if err != nil {
		return nil, err
	}
	return e.applyRate(addr, record, rateBps)
}

// UpdateCommissionRate replaces the caller's rate subject to the record's rate
// caps and the minimum interval between updates.
func (e *Engine) UpdateCommissionRate(caller [20]byte, rateBps uint16) (*Affiliate, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if rateBps > MaxRateBps {
		return nil, fmt.Errorf("affiliate engine: rate %d: %w", rateBps, coreerrors.ErrInvalidRate)
	}
	record, addr, err := e.load(e.RecordAddress(caller))
	if err != nil {
		return nil, err
	}
	if record.RateCapsEnabled && (rateBps < record.MinRateBps || rateBps > record.MaxRateBps) {
		return nil, fmt.Errorf("affiliate engine: rate %d outside caps [%d,%d]: %w",
			rateBps, record.MinRateBps, record.MaxRateBps, coreerrors.ErrInvalidRate)
	}
	now := e.now()
	interval := uint64(e.rateUpdateInterval / time.Second)
	if now < record.LastRateUpdateAt || now-record.LastRateUpdateAt < interval {
		return nil, fmt.Errorf("affiliate engine: last update at %d: %w", record.LastRateUpdateAt, coreerrors.ErrRateUpdateNotAllowed)
	}
	return e.applyRate(addr, record, rateBps)
}

// SuggestedRate returns the tier based rate recommendation for key.
func (e *Engine) SuggestedRate(key [20]byte) (uint16, *Affiliate, error) {
	record, err := e.Lookup(key)
	if err != nil {
		return 0, nil, err
	}
	return suggestedRate(record), record, nil
}

// RecordClicks adds clicks to the caller's click counter and refreshes the
// conversion rate. Referred volume only moves through settlement.
func (e *Engine) RecordClicks(caller [20]byte, clicks uint32) (*Affiliate, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if clicks == 0 {
		return nil, fmt.Errorf("affiliate engine: clicks: %w", coreerrors.ErrInvalidAmount)
	}
	record, addr, err := e.load(e.RecordAddress(caller))
	if err != nil {
		return nil, err
	}
	if record.TotalClicks > math.MaxUint32-clicks {
		return nil, fmt.Errorf("affiliate engine: click count: %w", coreerrors.ErrOverflow)
	}
	record.TotalClicks += clicks
	record.LastActivityAt = e.now()
	record.refreshPerformance()
	if err := e.state.AffiliatePut(addr, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AffiliateAnalyticsUpdated{
		Affiliate:         record.Key,
		Clicks:            clicks,
		TotalClicks:       record.TotalClicks,
		ConversionRateBps: record.ConversionRateBps,
		Tier:              record.Tier.String(),
	})
	return record.Clone(), nil
}

// CreditVolume adds amount to the referred volume of key and refreshes the
// performance metrics.
func (e *Engine) CreditVolume(key [20]byte, amount uint64) (*Affiliate, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	record, addr, err := e.load(e.RecordAddress(key))
	if err != nil {
		return nil, err
	}
	if err := e.credit(record, amount); err != nil {
		return nil, err
	}
	if err := e.state.AffiliatePut(addr, record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

func (e *Engine) credit(record *Affiliate, amount uint64) error {
	if record.TotalReferredVolume > math.MaxUint64-amount {
		return fmt.Errorf("affiliate engine: referred volume: %w", coreerrors.ErrOverflow)
	}
	if record.SuccessfulReferrals == math.MaxUint32 {
		return fmt.Errorf("affiliate engine: referral count: %w", coreerrors.ErrOverflow)
	}
	record.TotalReferredVolume += amount
	record.SuccessfulReferrals++
	record.LastActivityAt = e.now()
	record.refreshPerformance()
	return nil
}

func (e *Engine) applyRate(addr [20]byte, record *Affiliate, rateBps uint16) (*Affiliate, error) {
	previous := record.CommissionRateBps
	record.CommissionRateBps = rateBps
	record.LastRateUpdateAt = e.now()
	if err := e.state.AffiliatePut(addr, record); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AffiliateRateUpdated{
		Affiliate:  record.Key,
		OldRateBps: previous,
		NewRateBps: rateBps,
	})
	return record.Clone(), nil
}

func (e *Engine) load(addr [20]byte) (*Affiliate, [20]byte, error) {
	record, ok, err := e.state.AffiliateGet(addr)
	if err != nil {
		return nil, addr, err
	}
	if !ok || record == nil {
		return nil, addr, fmt.Errorf("affiliate engine: record: %w", coreerrors.ErrNotFound)
	}
	return record, addr, nil
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.program == nil {
		return errNilProgram
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
