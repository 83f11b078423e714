package plaid

import (
	"context"
	"time"
)

// ClientInterface is the subset of the Plaid API the services depend on.
type ClientInterface interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error)
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	SyncTransactions(ctx context.Context, accessToken, cursor string) (*SyncPage, error)
	RemoveItem(ctx context.Context, accessToken string) error
	GetInvestmentHoldings(ctx context.Context, accessToken string) (*HoldingsResponse, error)
	GetInvestmentTransactions(ctx context.Context, accessToken string, start, end time.Time) (*InvestmentTransactionsResponse, error)
}
