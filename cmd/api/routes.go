package main

import (
	"log/slog"
	"net/http"

	httphandlers "finboard/internal/interfaces/http"
	"finboard/internal/shared/config"
	"finboard/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)
	mux.HandleFunc("GET /api/health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("POST /api/auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("POST /api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}

	protect("GET /api/auth/me", deps.AuthHandler.HandleMe)

	protect("POST /api/plaid/create-link-token", deps.PlaidHandler.HandleCreateLinkToken)
	protect("POST /api/plaid/exchange-token", deps.PlaidHandler.HandleExchangeToken)
	protect("POST /api/plaid/sync-transactions", deps.PlaidHandler.HandleSyncTransactions)
	protect("GET /api/plaid/institutions", deps.PlaidHandler.HandleListInstitutions)
	protect("DELETE /api/plaid/institutions/{id}", deps.PlaidHandler.HandleDeleteInstitution)

	protect("GET /api/accounts", deps.AccountHandler.HandleListAccounts)
	protect("GET /api/accounts/summary/totals", deps.AccountHandler.HandleSummaryTotals)
	protect("POST /api/accounts/refresh-balances", deps.AccountHandler.HandleRefreshBalances)
	protect("GET /api/accounts/{id}", deps.AccountHandler.HandleGetAccount)

	protect("GET /api/transactions", deps.TransactionHandler.HandleListTransactions)
	protect("GET /api/transactions/meta/categories", deps.TransactionHandler.HandleCategories)
	protect("GET /api/transactions/analytics/by-category", deps.TransactionHandler.HandleSpendingByCategory)
	protect("GET /api/transactions/analytics/monthly", deps.TransactionHandler.HandleMonthly)
	protect("GET /api/transactions/{id}", deps.TransactionHandler.HandleGetTransaction)
	protect("PUT /api/transactions/{id}/category", deps.TransactionHandler.HandleUpdateCategory)

	protect("GET /api/budgets", deps.BudgetHandler.HandleListBudgets)
	protect("POST /api/budgets", deps.BudgetHandler.HandleCreateBudget)
	protect("GET /api/budgets/status/current", deps.BudgetHandler.HandleStatus)
	protect("GET /api/budgets/{id}", deps.BudgetHandler.HandleGetBudget)
	protect("PUT /api/budgets/{id}", deps.BudgetHandler.HandleUpdateBudget)
	protect("DELETE /api/budgets/{id}", deps.BudgetHandler.HandleDeleteBudget)
	protect("GET /api/budgets/{id}/history", deps.BudgetHandler.HandleHistory)

	protect("GET /api/categories", deps.CategoryHandler.HandleListCategories)
	protect("POST /api/categories", deps.CategoryHandler.HandleCreateCategory)
	protect("PUT /api/categories/{id}", deps.CategoryHandler.HandleUpdateCategory)
	protect("DELETE /api/categories/{id}", deps.CategoryHandler.HandleDeleteCategory)

	protect("GET /api/investments/holdings", deps.InvestmentHandler.HandleHoldings)
	protect("GET /api/investments/transactions", deps.InvestmentHandler.HandleTransactions)

	// Apply global middleware, outermost first at request time
	handler := middleware.Tracing(mux)
	handler = middleware.CORS(cfg.Server.AllowedHosts)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		slog.Info("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
