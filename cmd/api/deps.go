package main

import (
	"context"

	"go.uber.org/zap"

	"arena/internal/domain/account"
	"arena/internal/domain/csvimport"
	"arena/internal/domain/holding"
	"arena/internal/domain/ingestion"
	"arena/internal/infrastructure/crypto"
	"arena/internal/infrastructure/plaid"
	"arena/internal/infrastructure/postgres"
	httphandlers "arena/internal/interfaces/http"
	"arena/internal/shared/clock"
	"arena/internal/shared/config"
	"arena/internal/shared/logger"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	PlaidHandler   *httphandlers.PlaidHandler
	AccountHandler *httphandlers.AccountHandler
	HoldingHandler *httphandlers.HoldingHandler
}

// NewDependencies connects to the database and wires repositories, services
// and handlers.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName))

	if cfg.Database.MigrateOnStart {
		if err := postgres.MigrateUp(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, err
	}

	plaidClient, err := plaid.NewClient(plaid.Config{
		ClientID:   cfg.Plaid.ClientID,
		Secret:     cfg.Plaid.Secret,
		Env:        cfg.Plaid.Env,
		ClientName: cfg.Plaid.ClientName,
		Timeout:    cfg.Plaid.Timeout,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	// Repositories
	credentialRepo := postgres.NewCredentialRepository(db, encryptor)
	accountRepo := postgres.NewAccountRepository(db)
	holdingRepo := postgres.NewHoldingRepository(db)

	// Domain services
	clk := clock.New()
	accountService := account.NewService(accountRepo)
	holdingService := holding.NewService(holdingRepo)
	ingestionService := ingestion.NewService(
		plaidClient,
		credentialRepo,
		accountService,
		holdingService,
		clk,
		ingestion.Config{ResyncConcurrency: cfg.Ingestion.ResyncConcurrency},
	)
	importService := csvimport.NewService(holdingService, clk)

	return &Dependencies{
		DB:             db,
		PlaidHandler:   httphandlers.NewPlaidHandler(ingestionService),
		AccountHandler: httphandlers.NewAccountHandler(accountService),
		HoldingHandler: httphandlers.NewHoldingHandler(importService, holdingService, cfg.Server.UploadMaxBytes),
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
