package account

import (
	"context"
)

// Service exposes read access to the user's accounts.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int64) ([]*Account, error) {
	return s.repo.ListByUserID(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Account, error) {
	return s.repo.GetByID(ctx, userID, id)
}
