package budget

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Budget, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Budget, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create adds a budget. A second budget for the same category fails with
// ErrDuplicateCategory.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Budget, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.CategoryTaken(ctx, params.UserID, params.Category, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateCategory
	}

	params.ID = uuid.NewString()
	b, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "budget created", "user_id", params.UserID, "budget_id", b.ID, "category", b.Category)
	return b, nil
}

// Update changes the limit and optionally renames the budget. Renaming onto
// another budget's category fails with ErrDuplicateCategory; renaming to the
// current category is a plain limit update.
func (s *Service) Update(ctx context.Context, userID int64, id string, params UpdateParams) (*Budget, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if params.Category != nil {
		if *params.Category == existing.Category {
			params.Category = nil
		} else {
			taken, err := s.repo.CategoryTaken(ctx, userID, *params.Category, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrDuplicateCategory
			}
		}
	}

	return s.repo.Update(ctx, userID, id, params)
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
