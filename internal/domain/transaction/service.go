package transaction

import (
	"context"
	"strings"

	"finboard/internal/shared/errs"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of the user's transactions, newest first unless the
// filter says otherwise.
func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	filter.ApplyDefaults()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	txs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{Transactions: txs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*Transaction, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// UpdateCategory relabels one transaction. The label is stored trimmed but
// otherwise as given.
func (s *Service) UpdateCategory(ctx context.Context, userID int64, id, category string) (*Transaction, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errs.Validation("category is required")
	}
	return s.repo.UpdateCategory(ctx, userID, id, category)
}

func (s *Service) Categories(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.DistinctCategories(ctx, userID)
}
