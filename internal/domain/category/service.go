package category

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Category, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameTaken(ctx, params.UserID, params.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateName
	}

	params.ID = uuid.NewString()
	return s.repo.Create(ctx, params)
}

func (s *Service) Update(ctx context.Context, userID int64, id string, params UpdateParams) (*Category, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil && *params.Name != existing.Name {
		taken, err := s.repo.NameTaken(ctx, userID, *params.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateName
		}
	}

	return s.repo.Update(ctx, userID, id, params)
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
