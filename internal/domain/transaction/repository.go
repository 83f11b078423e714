package transaction

import "context"

// Repository defines the interface for transaction data access.
// Every read and write is scoped by user id.
type Repository interface {
	// Upsert inserts the row or replaces every column of the user's row with
	// the same TransactionID. It reports false and writes nothing when that
	// TransactionID belongs to another user.
	Upsert(ctx context.Context, params UpsertParams) (bool, error)

	// ApplyModification updates the user's row matching params.TransactionID.
	// A missing row is not an error; the bool reports whether a row changed.
	ApplyModification(ctx context.Context, params ModifyParams) (bool, error)

	// DeleteByExternalID removes the user's row with the given provider id. A
	// missing row is not an error.
	DeleteByExternalID(ctx context.Context, userID int64, transactionID string) (bool, error)

	List(ctx context.Context, filter ListFilter) ([]*Transaction, int, error)
	GetByID(ctx context.Context, userID int64, id string) (*Transaction, error)
	UpdateCategory(ctx context.Context, userID int64, id, category string) (*Transaction, error)
	DistinctCategories(ctx context.Context, userID int64) ([]string, error)
}
