package institution

import "context"

// Repository stores linked institutions. Implementations encrypt the access
// token at rest. Lookups by id are scoped by user and return
// ErrInstitutionNotFound for absent and foreign rows alike.
type Repository interface {
	// Create returns ErrAlreadyLinked when the provider item is already stored.
	Create(ctx context.Context, params CreateParams) (*Institution, error)
	GetByID(ctx context.Context, userID int64, id string) (*Institution, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Institution, error)
	// ListUserIDs returns every user with at least one linked institution.
	ListUserIDs(ctx context.Context) ([]int64, error)
	UpdateCursor(ctx context.Context, userID int64, id, cursor string) error
	// Delete removes the institution together with its accounts and
	// transactions.
	Delete(ctx context.Context, userID int64, id string) error
}
