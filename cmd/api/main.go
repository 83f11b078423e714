package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboard/internal/infrastructure/postgres"
	"finboard/internal/shared/config"
	"finboard/internal/shared/logging"
	"finboard/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(ctx); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
	}

	if err := postgres.Migrate(cfg.Database.URL(), postgres.Up); err != nil {
		return err
	}
	slog.Info("database migrations applied")

	deps, err := NewDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if deps.Scheduler != nil {
		deps.Scheduler.Start()
	}
	if deps.LinkListener != nil {
		deps.LinkListener.Start(ctx)
	}

	handler := SetupRoutes(deps, cfg)

	errCh := make(chan error, 1)
	srv, redirectSrv := StartServers(NewServerConfigFromConfig(handler, cfg), errCh)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		GracefulShutdown(srv, redirectSrv, deps, shutdownTimeout)
		return fmt.Errorf("server: %w", err)
	}

	GracefulShutdown(srv, redirectSrv, deps, shutdownTimeout)
	return nil
}
