package main

import (
	"net/http"

	httphandlers "arena/internal/interfaces/http"
	"arena/internal/shared/config"
	"arena/internal/shared/logger"
	"arena/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", httphandlers.HandleHealth)

	// Aggregator link flow
	mux.HandleFunc("/api/plaid/link-token", deps.PlaidHandler.HandleLinkToken)
	mux.HandleFunc("/api/plaid/exchange", deps.PlaidHandler.HandleExchange)
	mux.HandleFunc("/api/plaid/resync", deps.PlaidHandler.HandleResync)
	mux.HandleFunc("/api/plaid/remove-account", deps.PlaidHandler.HandleRemoveAccount)

	// Read side and uploads
	mux.HandleFunc("/api/accounts", deps.AccountHandler.HandleListAccounts)
	mux.HandleFunc("/api/holdings/upload", deps.HoldingHandler.HandleUpload)
	mux.HandleFunc("/api/holdings/latest", deps.HoldingHandler.HandleLatest)

	// Identity is attached before tracing so spans carry the user id.
	handler := middleware.Identity(cfg.Identity.UserID)(middleware.Tracing(mux))
	handler = middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(handler))

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		logger.Info("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
