package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"launchpad/crypto"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	MetricsAddress       string `toml:"MetricsAddress"`
	DataDir              string `toml:"DataDir"`
	NetworkName          string `toml:"NetworkName"`
	Environment          string `toml:"Environment"`
	OperatorKeystorePath string `toml:"OperatorKeystorePath"`

	Launchpad Launchpad `toml:"launchpad"`
	Affiliate Affiliate `toml:"affiliate"`
	RPC       RPC       `toml:"rpc"`
	Telemetry Telemetry `toml:"telemetry"`
	Logging   Logging   `toml:"logging"`
	Genesis   Genesis   `toml:"genesis"`
}

// LoadOption customises how Load resolves secrets.
type LoadOption func(*loadOptions)

type loadOptions struct {
	passphrase func() (string, error)
}

// WithKeystorePassphraseSource encrypts a freshly generated operator keystore
// with the passphrase returned by source. Without it the keystore is written
// unencrypted for local development.
func WithKeystorePassphraseSource(source func() (string, error)) LoadOption {
	return func(o *loadOptions) {
		o.passphrase = source
	}
}

func (o loadOptions) keystorePassphrase() (string, error) {
	if o.passphrase == nil {
		return "", nil
	}
	return o.passphrase()
}

// Load loads the configuration from the given path. A default configuration
// with a fresh operator keystore is written when the file does not exist.
func Load(path string, opts ...LoadOption) (*Config, error) {
	var options loadOptions
	for _, opt := range opts {
		opt(&options)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path, options)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s: unknown key %s", path, undecoded[0].String())
	}

	if err := ensureKeystore(path, cfg, options); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "launchpad-local"
	}
	if cfg.Genesis.Allocations == nil {
		cfg.Genesis.Allocations = []Allocation{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for fresh data directories.
func Default() *Config {
	return &Config{
		RPCAddress:  ":8080",
		DataDir:     "./launchpad-data",
		NetworkName: "launchpad-local",
		Environment: "dev",
		Launchpad: Launchpad{
			PaymentSymbol:             "USDL",
			PaymentDecimals:           6,
			MinVestingDurationSeconds: 24 * 60 * 60,
			MaxVestingDurationSeconds: 4 * 365 * 24 * 60 * 60,
		},
		Affiliate: Affiliate{
			DefaultCommissionBps:      1000,
			RateUpdateIntervalSeconds: 24 * 60 * 60,
		},
		RPC: RPC{
			JWTSecretEnv:       "LAUNCHPAD_JWT_SECRET",
			JWTIssuer:          "launchpad",
			RequestsPerMinute:  600,
			Burst:              60,
			ReadTimeoutSeconds: 15,
		},
		Telemetry: Telemetry{
			ServiceName:           "launchpadd",
			Endpoint:              "localhost:4318",
			Insecure:              true,
			SampleRatio:           1,
			ExportIntervalSeconds: 15,
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Genesis: Genesis{Allocations: []Allocation{}},
	}
}

func ensureKeystore(configPath string, cfg *Config, options loadOptions) error {
	keystorePath := cfg.OperatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		passphrase, passErr := options.keystorePassphrase()
		if passErr != nil {
			return passErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, passphrase); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystorePath != keystorePath {
		cfg.OperatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file. The operator
// key receives the initial payment asset allocation so a fresh node is usable.
func createDefault(path string, options loadOptions) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	passphrase, err := options.keystorePassphrase()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, passphrase); err != nil {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.OperatorKeystorePath = keystorePath
	cfg.RPC.JWTSecret = hex.EncodeToString(secret)
	cfg.Genesis.Allocations = []Allocation{{
		Address: key.PubKey().Address().String(),
		Amount:  1_000_000_000_000,
	}}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
