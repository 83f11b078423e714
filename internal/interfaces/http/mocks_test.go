package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/domain/account"
	"finboard/internal/domain/analytics"
	"finboard/internal/domain/budget"
	"finboard/internal/domain/category"
	"finboard/internal/domain/institution"
	"finboard/internal/domain/transaction"
	"finboard/internal/domain/user"
	"finboard/internal/infrastructure/plaid"
	"finboard/internal/shared/middleware"
)

const (
	testUserID    int64 = 1
	testAccountID       = "0f8fad5b-d9cb-469f-a165-70867728950e"
	testBudgetID        = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testTxnID           = "16fd2706-8baf-433b-82eb-8c7fada847da"
)

// newRequest builds an authenticated request for userID. A non-nil body is
// JSON encoded; pathID, when set, becomes the {id} path value.
func newRequest(method, target string, body any, pathID string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if pathID != "" {
		req.SetPathValue("id", pathID)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, testUserID)
	return req.WithContext(ctx)
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// MockUserRepo implements user.Repository for testing
type MockUserRepo struct {
	CreateFunc     func(ctx context.Context, params user.CreateUserParams) (*user.User, error)
	GetByIDFunc    func(ctx context.Context, id int64) (*user.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*user.User, error)
}

func (m *MockUserRepo) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

// MockAccountRepo implements account.Repository for testing
type MockAccountRepo struct {
	UpsertFunc         func(ctx context.Context, params account.UpsertParams) (*account.Account, error)
	GetByIDFunc        func(ctx context.Context, userID int64, id string) (*account.Account, error)
	ListByUserIDFunc   func(ctx context.Context, userID int64) ([]*account.Account, error)
	ExternalIDMapFunc  func(ctx context.Context, institutionID string) (map[string]string, error)
	UpdateBalancesFunc func(ctx context.Context, userID int64, update account.BalanceUpdate) (bool, error)
}

func (m *MockAccountRepo) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockAccountRepo) GetByID(ctx context.Context, userID int64, id string) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, account.ErrAccountNotFound
}

func (m *MockAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockAccountRepo) ExternalIDMap(ctx context.Context, institutionID string) (map[string]string, error) {
	if m.ExternalIDMapFunc != nil {
		return m.ExternalIDMapFunc(ctx, institutionID)
	}
	return map[string]string{}, nil
}

func (m *MockAccountRepo) UpdateBalances(ctx context.Context, userID int64, update account.BalanceUpdate) (bool, error) {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, userID, update)
	}
	return false, nil
}

// MockTransactionRepo implements transaction.Repository for testing
type MockTransactionRepo struct {
	ListFunc               func(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, int, error)
	GetByIDFunc            func(ctx context.Context, userID int64, id string) (*transaction.Transaction, error)
	UpdateCategoryFunc     func(ctx context.Context, userID int64, id, category string) (*transaction.Transaction, error)
	DistinctCategoriesFunc func(ctx context.Context, userID int64) ([]string, error)
}

func (m *MockTransactionRepo) Upsert(ctx context.Context, params transaction.UpsertParams) (bool, error) {
	return true, nil
}

func (m *MockTransactionRepo) ApplyModification(ctx context.Context, params transaction.ModifyParams) (bool, error) {
	return false, nil
}

func (m *MockTransactionRepo) DeleteByExternalID(ctx context.Context, userID int64, transactionID string) (bool, error) {
	return false, nil
}

func (m *MockTransactionRepo) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, 0, nil
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, userID int64, id string) (*transaction.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) UpdateCategory(ctx context.Context, userID int64, id, category string) (*transaction.Transaction, error) {
	if m.UpdateCategoryFunc != nil {
		return m.UpdateCategoryFunc(ctx, userID, id, category)
	}
	return nil, transaction.ErrTransactionNotFound
}

func (m *MockTransactionRepo) DistinctCategories(ctx context.Context, userID int64) ([]string, error) {
	if m.DistinctCategoriesFunc != nil {
		return m.DistinctCategoriesFunc(ctx, userID)
	}
	return []string{}, nil
}

// MockBudgetRepo implements budget.Repository for testing
type MockBudgetRepo struct {
	CreateFunc        func(ctx context.Context, params budget.CreateParams) (*budget.Budget, error)
	GetByIDFunc       func(ctx context.Context, userID int64, id string) (*budget.Budget, error)
	ListByUserIDFunc  func(ctx context.Context, userID int64) ([]*budget.Budget, error)
	CategoryTakenFunc func(ctx context.Context, userID int64, category, excludeID string) (bool, error)
	UpdateFunc        func(ctx context.Context, userID int64, id string, params budget.UpdateParams) (*budget.Budget, error)
	DeleteFunc        func(ctx context.Context, userID int64, id string) error
}

func (m *MockBudgetRepo) Create(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockBudgetRepo) GetByID(ctx context.Context, userID int64, id string) (*budget.Budget, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, budget.ErrBudgetNotFound
}

func (m *MockBudgetRepo) ListByUserID(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockBudgetRepo) CategoryTaken(ctx context.Context, userID int64, category, excludeID string) (bool, error) {
	if m.CategoryTakenFunc != nil {
		return m.CategoryTakenFunc(ctx, userID, category, excludeID)
	}
	return false, nil
}

func (m *MockBudgetRepo) Update(ctx context.Context, userID int64, id string, params budget.UpdateParams) (*budget.Budget, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, id, params)
	}
	return nil, budget.ErrBudgetNotFound
}

func (m *MockBudgetRepo) Delete(ctx context.Context, userID int64, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// MockCategoryRepo implements category.Repository for testing
type MockCategoryRepo struct {
	CreateFunc       func(ctx context.Context, params category.CreateParams) (*category.Category, error)
	GetByIDFunc      func(ctx context.Context, userID int64, id string) (*category.Category, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*category.Category, error)
	NameTakenFunc    func(ctx context.Context, userID int64, name, excludeID string) (bool, error)
	UpdateFunc       func(ctx context.Context, userID int64, id string, params category.UpdateParams) (*category.Category, error)
	DeleteFunc       func(ctx context.Context, userID int64, id string) error
}

func (m *MockCategoryRepo) Create(ctx context.Context, params category.CreateParams) (*category.Category, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockCategoryRepo) GetByID(ctx context.Context, userID int64, id string) (*category.Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, category.ErrCategoryNotFound
}

func (m *MockCategoryRepo) ListByUserID(ctx context.Context, userID int64) ([]*category.Category, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockCategoryRepo) NameTaken(ctx context.Context, userID int64, name, excludeID string) (bool, error) {
	if m.NameTakenFunc != nil {
		return m.NameTakenFunc(ctx, userID, name, excludeID)
	}
	return false, nil
}

func (m *MockCategoryRepo) Update(ctx context.Context, userID int64, id string, params category.UpdateParams) (*category.Category, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, id, params)
	}
	return nil, category.ErrCategoryNotFound
}

func (m *MockCategoryRepo) Delete(ctx context.Context, userID int64, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// MockAnalyticsRepo implements analytics.Repository for testing
type MockAnalyticsRepo struct {
	SpendingByCategoryFunc      func(ctx context.Context, userID int64, start, end string) ([]analytics.CategorySpending, error)
	MonthlyTotalsFunc           func(ctx context.Context, userID int64, year int) ([]analytics.MonthlyTotal, error)
	SpentByCategoryFunc         func(ctx context.Context, userID int64, start, end string) (map[string]decimal.Decimal, error)
	MonthlySpendForCategoryFunc func(ctx context.Context, userID int64, category, start, end string) (map[string]decimal.Decimal, error)
	AccountTotalsByTypeFunc     func(ctx context.Context, userID int64) ([]analytics.TypeTotal, error)
}

func (m *MockAnalyticsRepo) SpendingByCategory(ctx context.Context, userID int64, start, end string) ([]analytics.CategorySpending, error) {
	if m.SpendingByCategoryFunc != nil {
		return m.SpendingByCategoryFunc(ctx, userID, start, end)
	}
	return nil, nil
}

func (m *MockAnalyticsRepo) MonthlyTotals(ctx context.Context, userID int64, year int) ([]analytics.MonthlyTotal, error) {
	if m.MonthlyTotalsFunc != nil {
		return m.MonthlyTotalsFunc(ctx, userID, year)
	}
	return nil, nil
}

func (m *MockAnalyticsRepo) SpentByCategory(ctx context.Context, userID int64, start, end string) (map[string]decimal.Decimal, error) {
	if m.SpentByCategoryFunc != nil {
		return m.SpentByCategoryFunc(ctx, userID, start, end)
	}
	return map[string]decimal.Decimal{}, nil
}

func (m *MockAnalyticsRepo) MonthlySpendForCategory(ctx context.Context, userID int64, category, start, end string) (map[string]decimal.Decimal, error) {
	if m.MonthlySpendForCategoryFunc != nil {
		return m.MonthlySpendForCategoryFunc(ctx, userID, category, start, end)
	}
	return map[string]decimal.Decimal{}, nil
}

func (m *MockAnalyticsRepo) AccountTotalsByType(ctx context.Context, userID int64) ([]analytics.TypeTotal, error) {
	if m.AccountTotalsByTypeFunc != nil {
		return m.AccountTotalsByTypeFunc(ctx, userID)
	}
	return nil, nil
}

// MockInstitutionRepo implements institution.Repository for testing
type MockInstitutionRepo struct {
	GetByIDFunc      func(ctx context.Context, userID int64, id string) (*institution.Institution, error)
	ListByUserIDFunc func(ctx context.Context, userID int64) ([]*institution.Institution, error)
	DeleteFunc       func(ctx context.Context, userID int64, id string) error
}

func (m *MockInstitutionRepo) Create(ctx context.Context, params institution.CreateParams) (*institution.Institution, error) {
	return nil, nil
}

func (m *MockInstitutionRepo) GetByID(ctx context.Context, userID int64, id string) (*institution.Institution, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, institution.ErrInstitutionNotFound
}

func (m *MockInstitutionRepo) ListByUserID(ctx context.Context, userID int64) ([]*institution.Institution, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockInstitutionRepo) ListUserIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (m *MockInstitutionRepo) UpdateCursor(ctx context.Context, userID int64, id, cursor string) error {
	return nil
}

func (m *MockInstitutionRepo) Delete(ctx context.Context, userID int64, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// MockPlaidClient implements plaid.ClientInterface. Methods without a func
// field panic through the nil embedded interface.
type MockPlaidClient struct {
	plaid.ClientInterface
	CreateLinkTokenFunc func(ctx context.Context, clientUserID string) (string, error)
	RemoveItemFunc      func(ctx context.Context, accessToken string) error
}

func (m *MockPlaidClient) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	return m.CreateLinkTokenFunc(ctx, clientUserID)
}

func (m *MockPlaidClient) RemoveItem(ctx context.Context, accessToken string) error {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, accessToken)
	}
	return nil
}
