package core

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"launchpad/config"
	coreerrors "launchpad/core/errors"
	"launchpad/core/events"
	"launchpad/core/state"
	"launchpad/crypto"
	"launchpad/native/affiliate"
	"launchpad/native/launchpad"
	"launchpad/native/token"
	"launchpad/observability"
	lpotel "launchpad/observability/otel"
	"launchpad/storage"
	"launchpad/storage/trie"
)

// GenesisProgramName identifies the program holding the payment mint authority.
const GenesisProgramName = "genesis"

var (
	stateRootKey   = []byte("launchpad/state/root")
	stateHeightKey = []byte("launchpad/state/height")

	paymentMintSeed      = []byte("payment_mint")
	paymentAuthoritySeed = []byte("payment_authority")
)

// Node owns the state trie and the native engines. Every mutating operation
// runs atomically: either all of its writes and events land or none do.
type Node struct {
	db      storage.Database
	trie    *trie.Trie
	stateMu sync.Mutex
	height  uint64

	tokens     *token.Engine
	affiliates *affiliate.Engine
	launches   *launchpad.Engine
	genesis    *token.Program

	paymentMint     [20]byte
	paymentSymbol   string
	paymentDecimals uint8

	log          *events.Log
	metrics      *observability.LaunchpadMetrics
	tracer       trace.Tracer
	logger       *slog.Logger
	nowFn        func() int64
	allowMigrate bool
}

// Option customises a node at construction time.
type Option func(*Node)

// WithLogger routes node logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithNowFunc overrides the clock used by every engine.
func WithNowFunc(now func() int64) Option {
	return func(n *Node) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// WithEventCapacity bounds the number of committed events retained.
func WithEventCapacity(capacity int) Option {
	return func(n *Node) {
		n.log = events.NewLog(capacity)
	}
}

// WithAllowMigrate starts the node even when the stored schema version
// differs from state.StateVersion.
func WithAllowMigrate(allow bool) Option {
	return func(n *Node) {
		n.allowMigrate = allow
	}
}

// NewNode opens the state stored in db, wires the engines and applies the
// genesis allocations on first start.
func NewNode(db storage.Database, cfg *config.Config, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, errors.New("core: nil database")
	}
	if cfg == nil {
		return nil, errors.New("core: nil config")
	}

	root, height, err := loadStateRoot(db)
	if err != nil {
		return nil, err
	}
	stateTrie, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("core: open state: %w", err)
	}

	n := &Node{
		db:              db,
		trie:            stateTrie,
		height:          height,
		paymentSymbol:   strings.ToUpper(strings.TrimSpace(cfg.Launchpad.PaymentSymbol)),
		paymentDecimals: cfg.Launchpad.PaymentDecimals,
		log:             events.NewLog(0),
		metrics:         observability.Launchpad(),
		tracer:          lpotel.Tracer(),
		logger:          slog.Default(),
		nowFn:           func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(n)
	}

	if err := n.wireEngines(cfg); err != nil {
		return nil, err
	}
	if err := n.applyGenesis(context.Background(), cfg.Genesis.Allocations); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) wireEngines(cfg *config.Config) error {
	n.tokens = token.NewEngine()
	genesis, err := n.tokens.RegisterProgram(GenesisProgramName)
	if err != nil {
		return err
	}
	launchProgram, err := n.tokens.RegisterProgram(launchpad.ProgramName)
	if err != nil {
		return err
	}
	affiliateProgram, err := n.tokens.RegisterProgram(affiliate.ProgramName)
	if err != nil {
		return err
	}
	n.genesis = genesis
	n.paymentMint = genesis.Derive(paymentMintSeed, []byte(n.paymentSymbol))

	n.affiliates = affiliate.NewEngine(affiliateProgram)
	n.affiliates.SetTokens(n.tokens)
	if err := n.affiliates.SetDefaultRate(cfg.Affiliate.DefaultCommissionBps); err != nil {
		return err
	}
	n.affiliates.SetRateUpdateInterval(cfg.Affiliate.RateUpdateInterval())

	n.launches = launchpad.NewEngine(launchProgram)
	n.launches.SetTokens(n.tokens)
	n.launches.SetAffiliates(n.affiliates)
	n.launches.SetPaymentMint(n.paymentMint)
	lower, upper := cfg.Launchpad.VestingBounds()
	n.launches.SetVestingBounds(lower, upper)

	n.tokens.SetNowFunc(n.nowFn)
	n.affiliates.SetNowFunc(n.nowFn)
	n.launches.SetNowFunc(n.nowFn)
	return nil
}

func (n *Node) applyGenesis(ctx context.Context, allocations []config.Allocation) error {
	return n.apply(ctx, "genesis", func(manager *state.Manager) error {
		if err := manager.EnsureStateVersion(n.allowMigrate); err != nil {
			return err
		}
		applied, err := manager.GenesisApplied()
		if err != nil || applied {
			return err
		}
		authority := n.genesis.Derive(paymentAuthoritySeed)
		if _, err := n.tokens.CreateMint(n.paymentMint, authority, n.paymentSymbol, n.paymentDecimals); err != nil {
			return fmt.Errorf("core: payment mint: %w", err)
		}
		for i, alloc := range allocations {
			addr, err := crypto.DecodeAccount(alloc.Address)
			if err != nil {
				return fmt.Errorf("core: genesis allocation %d: %w", i, err)
			}
			signer := n.genesis.Signer(paymentAuthoritySeed)
			if err := n.tokens.MintTo(signer, n.paymentMint, addr, alloc.Amount); err != nil {
				return fmt.Errorf("core: genesis allocation %d: %w", i, err)
			}
		}
		n.logger.Info("genesis applied",
			slog.String("payment_mint", crypto.FormatAccount(n.paymentMint)),
			slog.Int("allocations", len(allocations)))
		return manager.MarkGenesisApplied()
	})
}

// bind points every engine at the manager and emitter for one operation.
func (n *Node) bind(manager *state.Manager, emitter events.Emitter) {
	n.tokens.SetState(manager)
	n.tokens.SetEmitter(emitter)
	n.affiliates.SetState(manager)
	n.affiliates.SetEmitter(emitter)
	n.launches.SetState(manager)
	n.launches.SetEmitter(emitter)
}

// apply runs fn as a single atomic state transition. On failure the trie is
// reverted and buffered events are dropped. On success the state is
// committed and the events are published.
func (n *Node) apply(ctx context.Context, op string, fn func(*state.Manager) error) error {
	_, span := n.tracer.Start(ctx, "launchpad."+op)
	defer span.End()
	started := time.Now()

	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	snapshot := n.trie.Snapshot()
	buffer := &events.Buffer{}
	manager := state.NewManager(n.trie)
	n.bind(manager, buffer)

	err := fn(manager)
	if err == nil {
		_, err = n.commitLocked()
	}
	if err != nil {
		n.trie.Revert(snapshot)
		kind := coreerrors.KindOf(err)
		n.metrics.RecordOperation(op, string(kind), time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		n.logger.Debug("operation aborted",
			slog.String("op", op),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
		return err
	}

	buffer.Flush(n.log)
	n.metrics.RecordOperation(op, "", time.Since(started))
	span.SetAttributes(attribute.Int64("launchpad.height", int64(n.height)))
	return nil
}

// view runs a read-only fn against the current state.
func (n *Node) view(fn func(*state.Manager) error) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	manager := state.NewManager(n.trie)
	n.bind(manager, nil)
	return fn(manager)
}

func (n *Node) commitLocked() (common.Hash, error) {
	if !n.trie.Dirty() {
		return n.trie.Root(), nil
	}
	next := n.height + 1
	root, err := n.trie.Commit(next)
	if err != nil {
		return common.Hash{}, err
	}
	var height [8]byte
	binary.BigEndian.PutUint64(height[:], next)
	if err := n.db.Write(
		storage.Entry{Key: stateRootKey, Value: root.Bytes()},
		storage.Entry{Key: stateHeightKey, Value: height[:]},
	); err != nil {
		return common.Hash{}, err
	}
	n.height = next
	return root, nil
}

// Commit persists any pending state and returns the state root.
func (n *Node) Commit() (common.Hash, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.commitLocked()
}

// StateRoot returns the last committed state root.
func (n *Node) StateRoot() common.Hash {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.trie.Root()
}

// Height returns the number of committed state transitions.
func (n *Node) Height() uint64 {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.height
}

// Events returns up to limit of the most recently committed events.
func (n *Node) Events(limit int) []events.Event {
	return n.log.Recent(limit)
}

// Now returns the node clock in unix seconds.
func (n *Node) Now() uint64 {
	now := n.nowFn()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// PaymentMint returns the address of the payment asset.
func (n *Node) PaymentMint() [20]byte { return n.paymentMint }

// Close releases the underlying database.
func (n *Node) Close() {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	n.db.Close()
}

func loadStateRoot(db storage.Database) ([]byte, uint64, error) {
	ok, err := db.Has(stateRootKey)
	if err != nil || !ok {
		return nil, 0, err
	}
	root, err := db.Get(stateRootKey)
	if err != nil {
		return nil, 0, err
	}
	var height uint64
	if raw, err := db.Get(stateHeightKey); err == nil && len(raw) == 8 {
		height = binary.BigEndian.Uint64(raw)
	}
	return root, height, nil
}
