package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tipfinity/config"
	"tipfinity/core"
	"tipfinity/core/genesis"
	"tipfinity/observability/logging"
	telemetry "tipfinity/observability/otel"
	"tipfinity/rpc"
	"tipfinity/storage"
)

const genesisPathEnv = "TIP_GENESIS"

type envLookupFunc func(string) (string, bool)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides TIP_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.SetupWithOptions("tipd", cfg.Environment, logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Level:      parseLevel(cfg.Log.Level),
	})

	if err := run(cfg, *genesisFlag, os.LookupEnv, logger); err != nil {
		logger.Error("tipd exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, genesisFlag string, lookup envLookupFunc, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: "tipd",
			Environment: cfg.Environment,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
			Metrics:     true,
			Traces:      true,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return fmt.Errorf("initialise telemetry: %w", err)
		}
		defer func() {
			_ = shutdownTelemetry(context.Background())
		}()
	}

	spec, err := loadGenesis(cfg, resolveGenesisPath(genesisFlag, cfg.GenesisFile, lookup))
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Storage.Backend, cfg.StoragePath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db, spec, logger)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	server := rpc.NewServer(node, rpc.ServerConfig{
		AuthToken:         cfg.RPC.AuthToken,
		RequestsPerMinute: cfg.RPC.RequestsPerMinute,
		Burst:             cfg.RPC.Burst,
		MaxBodyBytes:      cfg.RPC.MaxBodyBytes,
		TrustedProxies:    cfg.RPC.TrustedProxies,
	}, logger)
	if cfg.RPC.AuthToken == "" {
		logger.Warn("RPC auth token not set; tip_sendTransaction is open to any caller")
	}

	var handler http.Handler = server.Handler()
	if cfg.Telemetry.Enabled {
		handler = telemetry.WrapHandler(handler, "tipd.rpc")
	}
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.RPC.ReadTimeoutSecs) * time.Second,
		WriteTimeout:      time.Duration(cfg.RPC.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("RPC server listening",
			slog.String("addr", cfg.RPCAddress),
			slog.Uint64("chainId", node.ChainID()),
			slog.String("storage", cfg.Storage.Backend))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("rpc server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown rpc server: %w", err)
	}
	return nil
}

// resolveGenesisPath picks the genesis file from the CLI flag, then the
// environment, then the config. An empty result boots an unfunded ledger.
func resolveGenesisPath(cliPath, cfgPath string, lookup envLookupFunc) string {
	if trimmed := strings.TrimSpace(cliPath); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return strings.TrimSpace(cfgPath)
}

// loadGenesis reads the genesis file at path and reconciles its chain id with
// the configured one.
func loadGenesis(cfg *config.Config, path string) (*genesis.GenesisSpec, error) {
	spec := &genesis.GenesisSpec{}
	if path != "" {
		loaded, err := genesis.LoadGenesisSpec(path)
		if err != nil {
			return nil, fmt.Errorf("load genesis spec: %w", err)
		}
		spec = loaded
	}
	if cfg.ChainID == 0 {
		return spec, nil
	}
	if spec.ChainID != nil && *spec.ChainID != cfg.ChainID {
		return nil, fmt.Errorf("config ChainID %d conflicts with genesis chainId %d", cfg.ChainID, *spec.ChainID)
	}
	chainID := cfg.ChainID
	spec.ChainID = &chainID
	return spec, nil
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
