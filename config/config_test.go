package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"launchpad/crypto"
)

func testAddress(b byte) string {
	var raw [20]byte
	raw[0] = b
	return crypto.FormatAccount(raw)
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Affiliate.DefaultCommissionBps != 1000 {
		t.Fatalf("unexpected default commission %d", cfg.Affiliate.DefaultCommissionBps)
	}
	if _, err := os.Stat(cfg.OperatorKeystorePath); err != nil {
		t.Fatalf("expected operator keystore: %v", err)
	}
	if len(cfg.RPC.JWTSecret) != 64 {
		t.Fatalf("expected generated JWT secret, got %q", cfg.RPC.JWTSecret)
	}
	if len(cfg.Genesis.Allocations) != 1 {
		t.Fatalf("expected operator allocation, got %d", len(cfg.Genesis.Allocations))
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Genesis.Allocations[0] != cfg.Genesis.Allocations[0] {
		t.Fatalf("allocation not persisted: %+v", reloaded.Genesis.Allocations)
	}
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
MetricsAddress = "127.0.0.1:9100"
DataDir = "./data"
NetworkName = "launchpad-test"

[launchpad]
PaymentSymbol = "USDX"
PaymentDecimals = 9
MinVestingDurationSeconds = 3600
MaxVestingDurationSeconds = 7200

[affiliate]
DefaultCommissionBps = 750
RateUpdateIntervalSeconds = 60

[rpc]
JWTSecret = "inline"
RequestsPerMinute = 10
Burst = 2

[logging]
Level = "debug"
File = "node.log"

[[genesis.Allocations]]
Address = "` + testAddress(1) + `"
Amount = 5000
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Launchpad.PaymentSymbol != "USDX" || cfg.Launchpad.PaymentDecimals != 9 {
		t.Fatalf("unexpected launchpad section: %+v", cfg.Launchpad)
	}
	lower, upper := cfg.Launchpad.VestingBounds()
	if lower != time.Hour || upper != 2*time.Hour {
		t.Fatalf("unexpected vesting bounds %s %s", lower, upper)
	}
	if cfg.Affiliate.DefaultCommissionBps != 750 || cfg.Affiliate.RateUpdateInterval() != time.Minute {
		t.Fatalf("unexpected affiliate section: %+v", cfg.Affiliate)
	}
	if cfg.MetricsAddress != "127.0.0.1:9100" {
		t.Fatalf("unexpected metrics address %q", cfg.MetricsAddress)
	}
	if cfg.Telemetry.SampleRatio != 1 {
		t.Fatalf("expected default sample ratio, got %v", cfg.Telemetry.SampleRatio)
	}
	if cfg.RPC.JWTIssuer != "launchpad" {
		t.Fatalf("expected default issuer to survive partial section, got %q", cfg.RPC.JWTIssuer)
	}
	if len(cfg.Genesis.Allocations) != 1 || cfg.Genesis.Allocations[0].Amount != 5000 {
		t.Fatalf("unexpected allocations: %+v", cfg.Genesis.Allocations)
	}
	if cfg.OperatorKeystorePath == "" {
		t.Fatalf("expected keystore path to be filled in")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("Bogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "Bogus") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "commission", mutate: func(c *Config) { c.Affiliate.DefaultCommissionBps = 10001 }, want: "DefaultCommissionBps"},
		{name: "vesting order", mutate: func(c *Config) { c.Launchpad.MinVestingDurationSeconds = c.Launchpad.MaxVestingDurationSeconds + 1 }, want: "MinVestingDurationSeconds"},
		{name: "rate limit", mutate: func(c *Config) { c.RPC.RequestsPerMinute = 0 }, want: "RequestsPerMinute"},
		{name: "sample ratio", mutate: func(c *Config) { c.Telemetry.SampleRatio = 1.5 }, want: "SampleRatio"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, want: "level"},
		{name: "bad address", mutate: func(c *Config) {
			c.Genesis.Allocations = []Allocation{{Address: "nope", Amount: 1}}
		}, want: "allocation 0"},
		{name: "zero amount", mutate: func(c *Config) {
			c.Genesis.Allocations = []Allocation{{Address: testAddress(2), Amount: 0}}
		}, want: "amount"},
		{name: "duplicate", mutate: func(c *Config) {
			c.Genesis.Allocations = []Allocation{{Address: testAddress(3), Amount: 1}, {Address: testAddress(3), Amount: 2}}
		}, want: "duplicate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestRPCSecretPrefersEnvironment(t *testing.T) {
	t.Setenv("LAUNCHPAD_TEST_JWT", "from-env")
	rpc := RPC{JWTSecret: "inline", JWTSecretEnv: "LAUNCHPAD_TEST_JWT"}
	secret, err := rpc.Secret()
	if err != nil || secret != "from-env" {
		t.Fatalf("unexpected secret %q err %v", secret, err)
	}
	if _, err := (RPC{}).Secret(); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestLoadEncryptsDefaultKeystore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	source := func() (string, error) { return "operator-pass", nil }

	cfg, err := Load(path, WithKeystorePassphraseSource(source))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	key, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, "operator-pass")
	if err != nil {
		t.Fatalf("load keystore: %v", err)
	}
	if key.PubKey().Address().String() != cfg.Genesis.Allocations[0].Address {
		t.Fatalf("operator allocation does not match keystore")
	}
	if _, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, "wrong"); err == nil {
		t.Fatalf("expected wrong passphrase to fail")
	}
}
