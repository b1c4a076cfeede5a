package token

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	coreerrors "launchpad/core/errors"
	"launchpad/core/events"
	"launchpad/crypto"
)

var (
	errNilState      = errors.New("token engine: state not configured")
	errProgramName   = errors.New("token engine: program name required")
	errSymbolMissing = errors.New("token engine: symbol required")
)

type engineState interface {
	TokenMintGet(addr [20]byte) (*Mint, bool, error)
	TokenMintPut(mint *Mint) error
	TokenBalance(mint [20]byte, owner [20]byte) (uint64, error)
	TokenSetBalance(mint [20]byte, owner [20]byte, amount uint64) error
}

// Engine owns mint metadata and balances. Programs registered with the engine
// may authorise mints and transfers for their derived accounts through
// single-use signers.
type Engine struct {
	state    engineState
	emitter  events.Emitter
	nowFn    func() int64
	programs map[[20]byte]*Program
}

// NewEngine constructs a token engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
		programs: make(map[[20]byte]*Program),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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

// RegisterProgram creates the identity for a native module. Each name can be
// registered once per engine.
func (e *Engine) RegisterProgram(name string) (*Program, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errProgramName
	}
	id := crypto.ProgramID(trimmed)
	if _, exists := e.programs[id]; exists {
		return nil, fmt.Errorf("token engine: program %q: %w", trimmed, coreerrors.ErrAlreadyExists)
	}
	program := &Program{name: trimmed, id: id, engine: e}
	e.programs[id] = program
	return program, nil
}

// CreateMint registers a new asset whose issuance is controlled by authority.
func (e *Engine) CreateMint(mint [20]byte, authority [20]byte, symbol string, decimals uint8) (*Mint, error) {
	if e.state == nil {
		return nil, errNilState
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errSymbolMissing
	}
	_, exists, err := e.state.TokenMintGet(mint)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("token engine: mint %s: %w", crypto.FormatAccount(mint), coreerrors.ErrAlreadyExists)
	}
	record := &Mint{
		Address:   mint,
		Symbol:    symbol,
		Decimals:  decimals,
		Authority: authority,
		CreatedAt: e.now(),
	}
	if err := e.state.TokenMintPut(record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// MintTo issues amount units of mint to the recipient. The signer must speak
// for the mint authority and is consumed by the call.
func (e *Engine) MintTo(signer *Signer, mint [20]byte, to [20]byte, amount uint64) error {
	if e.state == nil {
		return errNilState
	}
	if amount == 0 {
		return fmt.Errorf("token engine: mint: %w", coreerrors.ErrInvalidAmount)
	}
	record, err := e.loadMint(mint)
	if err != nil {
		return err
	}
	if err := e.consume(signer, record.Authority); err != nil {
		return err
	}
	if record.Supply > math.MaxUint64-amount {
		return fmt.Errorf("token engine: supply: %w", coreerrors.ErrOverflow)
	}
	balance, err := e.state.TokenBalance(mint, to)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return fmt.Errorf("token engine: balance: %w", coreerrors.ErrOverflow)
	}
	record.Supply += amount
	if err := e.state.TokenMintPut(record); err != nil {
		return err
	}
	if err := e.state.TokenSetBalance(mint, to, balance+amount); err != nil {
		return err
	}
	e.emitter.Emit(events.TokenMinted{Mint: mint, To: to, Amount: amount})
	return nil
}

// Transfer moves amount units from one account to another. Callers are
// responsible for authenticating from.
func (e *Engine) Transfer(from [20]byte, mint [20]byte, to [20]byte, amount uint64) error {
	if e.state == nil {
		return errNilState
	}
	if _, err := e.loadMint(mint); err != nil {
		return err
	}
	return e.move(mint, from, to, amount)
}

// TransferSigned moves amount units out of the program derived account the
// signer speaks for. The signer is consumed by the call.
func (e *Engine) TransferSigned(signer *Signer, mint [20]byte, to [20]byte, amount uint64) error {
	if e.state == nil {
		return errNilState
	}
	if _, err := e.loadMint(mint); err != nil {
		return err
	}
	if signer == nil {
		return fmt.Errorf("token engine: transfer: %w", coreerrors.ErrAuthorityMismatch)
	}
	from := signer.address
	if err := e.consume(signer, from); err != nil {
		return err
	}
	return e.move(mint, from, to, amount)
}

// Balance returns the holdings of owner in mint.
func (e *Engine) Balance(mint [20]byte, owner [20]byte) (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	return e.state.TokenBalance(mint, owner)
}

// Supply returns the total issued units of mint.
func (e *Engine) Supply(mint [20]byte) (uint64, error) {
	record, err := e.loadMint(mint)
	if err != nil {
		return 0, err
	}
	return record.Supply, nil
}

// Mint returns the metadata for mint.
func (e *Engine) Mint(mint [20]byte) (*Mint, error) {
	return e.loadMint(mint)
}

func (e *Engine) loadMint(mint [20]byte) (*Mint, error) {
	if e.state == nil {
		return nil, errNilState
	}
	record, ok, err := e.state.TokenMintGet(mint)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, fmt.Errorf("token engine: mint %s: %w", crypto.FormatAccount(mint), coreerrors.ErrNotFound)
	}
	return record, nil
}

func (e *Engine) move(mint [20]byte, from [20]byte, to [20]byte, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("token engine: transfer: %w", coreerrors.ErrInvalidAmount)
	}
	fromBalance, err := e.state.TokenBalance(mint, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("token engine: transfer: %w", coreerrors.ErrInsufficientFunds)
	}
	if from == to {
		e.emitter.Emit(events.TokenTransferred{Mint: mint, From: from, To: to, Amount: amount})
		return nil
	}
	toBalance, err := e.state.TokenBalance(mint, to)
	if err != nil {
		return err
	}
	if toBalance > math.MaxUint64-amount {
		return fmt.Errorf("token engine: transfer: %w", coreerrors.ErrOverflow)
	}
	if err := e.state.TokenSetBalance(mint, from, fromBalance-amount); err != nil {
		return err
	}
	if err := e.state.TokenSetBalance(mint, to, toBalance+amount); err != nil {
		return err
	}
	e.emitter.Emit(events.TokenTransferred{Mint: mint, From: from, To: to, Amount: amount})
	return nil
}

// consume verifies the signer was issued by a program registered with this
// engine, speaks for expected and has not been used, then marks it spent.
func (e *Engine) consume(signer *Signer, expected [20]byte) error {
	if signer == nil || signer.program == nil || signer.program.engine != e {
		return fmt.Errorf("token engine: signer: %w", coreerrors.ErrAuthorityMismatch)
	}
	if registered, ok := e.programs[signer.program.id]; !ok || registered != signer.program {
		return fmt.Errorf("token engine: signer: %w", coreerrors.ErrAuthorityMismatch)
	}
	if signer.spent {
		return fmt.Errorf("token engine: signer: %w", coreerrors.ErrSignerSpent)
	}
	if signer.address != expected {
		return fmt.Errorf("token engine: signer %s: %w", crypto.FormatAccount(signer.address), coreerrors.ErrAuthorityMismatch)
	}
	signer.spent = true
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
