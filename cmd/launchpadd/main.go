package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"launchpad/cmd/internal/passphrase"
	"launchpad/config"
	"launchpad/core"
	"launchpad/crypto"
	"launchpad/observability"
	"launchpad/observability/logging"
	lpotel "launchpad/observability/otel"
	"launchpad/rpc"
	"launchpad/storage"
)

const (
	serviceName       = "launchpadd"
	operatorPassEnv   = "LAUNCHPAD_OPERATOR_PASS"
	defaultConfigPath = "./config.toml"
)

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "serve":
		err = runServe(args)
	case "keygen":
		err = runKeygen(args)
	case "token":
		err = runToken(args)
	default:
		err = fmt.Errorf("unknown command %q (expected serve, keygen or token)", command)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to the configuration file")
	allowMigrate := fs.Bool("allow-migrate", false, "Start even if the stored state schema version differs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	passSource := passphrase.NewSource(operatorPassEnv)
	cfg, err := config.Load(*configFile, config.WithKeystorePassphraseSource(passSource.Get))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(serviceName, cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := lpotel.Init(ctx, lpotel.FromSettings(cfg.Telemetry, cfg.Environment))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	secret, err := cfg.RPC.Secret()
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	node, err := core.NewNode(db, cfg, core.WithLogger(logger), core.WithAllowMigrate(*allowMigrate))
	if err != nil {
		db.Close()
		return fmt.Errorf("start node: %w", err)
	}
	defer node.Close()

	logger.Info("node ready",
		slog.String("network", cfg.NetworkName),
		slog.String("state_root", node.StateRoot().Hex()),
		slog.String("payment_mint", crypto.FormatAccount(node.PaymentMint())))

	server := rpc.NewServer(node, rpc.ServerConfig{
		JWTSecret:         secret,
		JWTIssuer:         cfg.RPC.JWTIssuer,
		RequestsPerMinute: float64(cfg.RPC.RequestsPerMinute),
		Burst:             int(cfg.RPC.Burst),
		ReadTimeout:       time.Duration(cfg.RPC.ReadTimeoutSeconds) * time.Second,
		TrustProxyHeaders: cfg.RPC.TrustProxyHeaders,
	}, logger)
	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		go func() {
			if err := observability.ServeMetrics(ctx, addr); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}
	serveErr := server.Start(ctx, cfg.RPCAddress)

	if _, err := node.Commit(); err != nil {
		logger.Error("final commit failed", slog.Any("error", err))
	}
	logger.Info("shutdown complete")
	return serveErr
}

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	out := fs.String("out", "./operator.keystore", "Path of the keystore to create")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*out); err == nil {
		return fmt.Errorf("keystore %s already exists", *out)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	pass, err := passphrase.NewSource(operatorPassEnv).Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	if err := crypto.SaveToKeystore(*out, key, pass); err != nil {
		return err
	}
	fmt.Println(key.PubKey().Address().String())
	return nil
}

// runToken prints a bearer token for the operator key so scripts can call the
// mutating JSON-RPC methods.
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configFile := fs.String("config", defaultConfigPath, "Path to the configuration file")
	keystore := fs.String("keystore", "", "Keystore holding the caller key (defaults to the operator keystore)")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	passSource := passphrase.NewSource(operatorPassEnv)
	cfg, err := config.Load(*configFile, config.WithKeystorePassphraseSource(passSource.Get))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := strings.TrimSpace(*keystore)
	if path == "" {
		path = cfg.OperatorKeystorePath
	}
	pass, err := passSource.Get()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return fmt.Errorf("load keystore: %w", err)
	}
	secret, err := cfg.RPC.Secret()
	if err != nil {
		return err
	}
	token, err := rpc.IssueToken(secret, cfg.RPC.JWTIssuer, key.PubKey().Address().Array(), *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
