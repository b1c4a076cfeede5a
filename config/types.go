package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Launchpad configures the sale ledger and its payment asset.
type Launchpad struct {
	PaymentSymbol             string
	PaymentDecimals           uint8
	MinVestingDurationSeconds uint64
	MaxVestingDurationSeconds uint64
}

// VestingBounds returns the accepted vesting durations.
func (l Launchpad) VestingBounds() (time.Duration, time.Duration) {
	return time.Duration(l.MinVestingDurationSeconds) * time.Second,
		time.Duration(l.MaxVestingDurationSeconds) * time.Second
}

// Affiliate configures the registry defaults.
type Affiliate struct {
	DefaultCommissionBps      uint16
	RateUpdateIntervalSeconds uint64
}

// RateUpdateInterval returns the minimum spacing between capped rate updates.
func (a Affiliate) RateUpdateInterval() time.Duration {
	return time.Duration(a.RateUpdateIntervalSeconds) * time.Second
}

// RPC configures the JSON-RPC listener.
type RPC struct {
	JWTSecret          string
	JWTSecretEnv       string
	JWTIssuer          string
	RequestsPerMinute  uint32
	Burst              uint32
	ReadTimeoutSeconds uint32
	TrustProxyHeaders  bool
}

// Secret resolves the JWT signing secret. The environment variable wins over
// the inline value when both are configured.
func (r RPC) Secret() (string, error) {
	if env := strings.TrimSpace(r.JWTSecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value, nil
		}
	}
	if secret := strings.TrimSpace(r.JWTSecret); secret != "" {
		return secret, nil
	}
	return "", fmt.Errorf("rpc: JWT secret not configured")
}

// Telemetry configures the OpenTelemetry exporters.
type Telemetry struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
	Headers     string
	Metrics     bool
	Traces      bool
	// SampleRatio is the fraction of root spans recorded, in [0, 1].
	SampleRatio           float64
	ExportIntervalSeconds uint32
}

// Logging configures the structured logger and its optional file sink.
type Logging struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Genesis lists the payment asset balances credited to a fresh state.
type Genesis struct {
	Allocations []Allocation
}

// Allocation credits Amount base units of the payment asset to Address.
type Allocation struct {
	Address string
	Amount  uint64
}
