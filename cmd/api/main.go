package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"arena/internal/shared/config"
	"arena/internal/shared/logger"
	"arena/internal/shared/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "optional YAML config file")
	envPath := flag.String("env", ".", "directory containing .env files")
	flag.Parse()

	if err := run(*configFile, *envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, envPath string) error {
	cfg, err := config.Load(configFile, envPath)
	if err != nil {
		return err
	}

	if err := logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": cfg.Telemetry.ServiceName},
	}); err != nil {
		return err
	}
	defer logger.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  environment(cfg),
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Error(err, zap.String("component", "telemetry"))
			}
		}()
	}

	deps, err := NewDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := SetupRoutes(deps, cfg)
	srv, redirectSrv, errCh := StartServers(NewServerConfigFromConfig(handler, cfg))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		GracefulShutdown(srv, redirectSrv, shutdownTimeout)
		return err
	}

	GracefulShutdown(srv, redirectSrv, shutdownTimeout)
	return nil
}

func environment(cfg *config.Config) string {
	if cfg.Debug {
		return "development"
	}
	return "production"
}
