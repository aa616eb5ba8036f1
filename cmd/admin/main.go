package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"arena/internal/infrastructure/postgres"
	"arena/internal/shared/config"
	"arena/internal/shared/logger"
)

var (
	configFile = flag.String("config", "", "optional YAML config file")
	envPath    = flag.String("env", ".", "directory containing .env files")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&resyncCmd{}, "ingestion")
	subcommands.Register(&importCSVCmd{}, "ingestion")
	subcommands.Register(&migrateCmd{}, "database")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}

// loadConfig reads configuration and starts the logger. The returned func
// flushes the logger.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(logger.Config{Debug: cfg.Debug, SentryDSN: cfg.SentryDSN}); err != nil {
		return nil, nil, err
	}
	return cfg, func() { logger.Flush(2 * time.Second) }, nil
}

func openDB(cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{MaxOpenConns: 8, MaxIdleConns: 2})
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
