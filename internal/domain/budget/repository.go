package budget

import "context"

// Repository stores budgets. Create and Update return ErrDuplicateCategory
// when the unique (user, category) constraint rejects the write; lookups
// return ErrBudgetNotFound for absent and foreign rows alike.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Budget, error)
	GetByID(ctx context.Context, userID int64, id string) (*Budget, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Budget, error)
	// CategoryTaken reports whether another budget of the user (other than
	// excludeID) already uses category.
	CategoryTaken(ctx context.Context, userID int64, category, excludeID string) (bool, error)
	Update(ctx context.Context, userID int64, id string, params UpdateParams) (*Budget, error)
	Delete(ctx context.Context, userID int64, id string) error
}
