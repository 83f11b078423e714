package account

import (
	"context"
	"errors"
	"testing"
)

type MockAccountRepo struct {
	UpsertFunc         func(ctx context.Context, params UpsertParams) (*Account, error)
	GetByIDFunc        func(ctx context.Context, userID int64, id string) (*Account, error)
	ListByUserIDFunc   func(ctx context.Context, userID int64) ([]*Account, error)
	ExternalIDMapFunc  func(ctx context.Context, institutionID string) (map[string]string, error)
	UpdateBalancesFunc func(ctx context.Context, userID int64, update BalanceUpdate) (bool, error)
}

func (m *MockAccountRepo) Upsert(ctx context.Context, params UpsertParams) (*Account, error) {
	return m.UpsertFunc(ctx, params)
}
func (m *MockAccountRepo) GetByID(ctx context.Context, userID int64, id string) (*Account, error) {
	return m.GetByIDFunc(ctx, userID, id)
}
func (m *MockAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*Account, error) {
	return m.ListByUserIDFunc(ctx, userID)
}
func (m *MockAccountRepo) ExternalIDMap(ctx context.Context, institutionID string) (map[string]string, error) {
	return m.ExternalIDMapFunc(ctx, institutionID)
}
func (m *MockAccountRepo) UpdateBalances(ctx context.Context, userID int64, update BalanceUpdate) (bool, error) {
	return m.UpdateBalancesFunc(ctx, userID, update)
}

func TestService_Get(t *testing.T) {
	repo := &MockAccountRepo{
		GetByIDFunc: func(ctx context.Context, userID int64, id string) (*Account, error) {
			if userID == 1 && id == "acc-1" {
				return &Account{ID: id, UserID: userID, Name: "Checking"}, nil
			}
			return nil, ErrAccountNotFound
		},
	}
	svc := NewService(repo)

	acc, err := svc.Get(context.Background(), 1, "acc-1")
	if err != nil || acc.Name != "Checking" {
		t.Fatalf("Get() = %v, %v", acc, err)
	}

	if _, err := svc.Get(context.Background(), 2, "acc-1"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Get() for foreign user error = %v, want ErrAccountNotFound", err)
	}
}

func TestService_List(t *testing.T) {
	repo := &MockAccountRepo{
		ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*Account, error) {
			return []*Account{{ID: "a"}, {ID: "b"}}, nil
		},
	}

	accounts, err := NewService(repo).List(context.Background(), 1)
	if err != nil || len(accounts) != 2 {
		t.Fatalf("List() = %v, %v", accounts, err)
	}
}
