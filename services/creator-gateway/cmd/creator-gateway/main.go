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
	"strconv"
	"strings"
	"syscall"
	"time"

	"tipfinity/observability/logging"
	telemetry "tipfinity/observability/otel"
	creatorgateway "tipfinity/services/creator-gateway"
)

func main() {
	configPath := flag.String("config", "", "Path to the creator gateway YAML config")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("TIP_ENV"))
	logger := logging.Setup("creator-gateway", env)

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "creator-gateway",
		Environment: env,
		Endpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		Insecure:    otlpInsecure(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")),
		Headers:     telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		logger.Error("init telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	if err := run(*configPath, logger); err != nil {
		logger.Error("creator gateway failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func otlpInsecure(raw string) bool {
	if value := strings.TrimSpace(raw); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return true
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := creatorgateway.LoadConfig(configPath, os.LookupEnv)
	if err != nil {
		return err
	}

	db, err := creatorgateway.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	store, err := creatorgateway.NewStore(db)
	if err != nil {
		return err
	}
	prices := creatorgateway.NewPriceClient(nil, cfg.Price, logger)
	server, err := creatorgateway.NewServer(store, creatorgateway.NewSessions(cfg.Session), prices, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      telemetry.WrapHandler(server.Handler(), "creator-gateway"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("creator-gateway listening",
			slog.String("addr", cfg.ListenAddress),
			slog.String("driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
