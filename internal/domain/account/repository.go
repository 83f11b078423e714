package account

import "context"

// Repository defines the interface for account data access.
// This interface is defined in the domain layer, but implemented in the infrastructure layer.
type Repository interface {
	Upsert(ctx context.Context, params UpsertParams) (*Account, error)

	// GetByID returns ErrAccountNotFound for absent and foreign accounts.
	GetByID(ctx context.Context, userID int64, id string) (*Account, error)

	// ListByUserID returns the user's accounts with their institution name,
	// ordered by institution name then account name.
	ListByUserID(ctx context.Context, userID int64) ([]*Account, error)

	// ExternalIDMap maps external account ids to local ids for one institution.
	ExternalIDMap(ctx context.Context, institutionID string) (map[string]string, error)

	// UpdateBalances reports whether a matching account was updated.
	UpdateBalances(ctx context.Context, userID int64, update BalanceUpdate) (bool, error)
}
