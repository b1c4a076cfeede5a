package config

import (
	"fmt"
	"strings"

	"launchpad/crypto"
)

// MaxBps bounds every basis point setting.
const MaxBps = 10_000

// Validate checks the configuration ranges before the node starts.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if strings.TrimSpace(c.Launchpad.PaymentSymbol) == "" {
		return fmt.Errorf("launchpad: PaymentSymbol must not be empty")
	}
	if c.Launchpad.MinVestingDurationSeconds == 0 {
		return fmt.Errorf("launchpad: MinVestingDurationSeconds must be positive")
	}
	if c.Launchpad.MinVestingDurationSeconds > c.Launchpad.MaxVestingDurationSeconds {
		return fmt.Errorf("launchpad: MinVestingDurationSeconds > MaxVestingDurationSeconds")
	}
	if c.Affiliate.DefaultCommissionBps > MaxBps {
		return fmt.Errorf("affiliate: DefaultCommissionBps %d exceeds %d", c.Affiliate.DefaultCommissionBps, MaxBps)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio %v outside [0, 1]", c.Telemetry.SampleRatio)
	}
	if c.RPC.RequestsPerMinute == 0 {
		return fmt.Errorf("rpc: RequestsPerMinute must be positive")
	}
	if c.RPC.Burst == 0 {
		return fmt.Errorf("rpc: Burst must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	seen := make(map[string]struct{}, len(c.Genesis.Allocations))
	for i, alloc := range c.Genesis.Allocations {
		addr, err := crypto.DecodeAccount(alloc.Address)
		if err != nil {
			return fmt.Errorf("genesis: allocation %d: %w", i, err)
		}
		if alloc.Amount == 0 {
			return fmt.Errorf("genesis: allocation %d: amount must be positive", i)
		}
		key := crypto.FormatAccount(addr)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("genesis: duplicate allocation for %s", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
