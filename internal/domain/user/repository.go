package user

import "context"

// Repository defines the interface for user data access.
// GetByID and GetByEmail return an errs.ErrNotFound error for missing users;
// Create returns ErrEmailTaken on a duplicate email.
type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
