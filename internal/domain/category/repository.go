package category

import (
	"context"
)

// Repository stores custom categories. Writes that hit the unique
// (user, name) constraint return ErrDuplicateName.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Category, error)
	GetByID(ctx context.Context, userID int64, id string) (*Category, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Category, error)
	NameTaken(ctx context.Context, userID int64, name, excludeID string) (bool, error)
	Update(ctx context.Context, userID int64, id string, params UpdateParams) (*Category, error)
	Delete(ctx context.Context, userID int64, id string) error
}
