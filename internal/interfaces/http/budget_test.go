package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finboard/internal/domain/analytics"
	"finboard/internal/domain/budget"
)

func newBudgetHandler(budgets *MockBudgetRepo, stats *MockAnalyticsRepo) *BudgetHandler {
	return NewBudgetHandler(budget.NewService(budgets), analytics.NewService(stats, budgets))
}

func foodBudget() *budget.Budget {
	return &budget.Budget{ID: testBudgetID, UserID: testUserID, Category: "FOOD", MonthlyLimit: mustDecimal("100")}
}

func TestHandleCreateBudget(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		taken          bool
		expectedStatus int
	}{
		{"Success", map[string]any{"category": "FOOD", "monthly_limit": 100}, false, http.StatusCreated},
		{"Limit As String", map[string]any{"category": "FOOD", "monthly_limit": "250.50"}, false, http.StatusCreated},
		{"Duplicate Category", map[string]any{"category": "FOOD", "monthly_limit": 100}, true, http.StatusConflict},
		{"Zero Limit", map[string]any{"category": "FOOD", "monthly_limit": 0}, false, http.StatusBadRequest},
		{"Negative Limit", map[string]any{"category": "FOOD", "monthly_limit": -5}, false, http.StatusBadRequest},
		{"Missing Limit", map[string]any{"category": "FOOD"}, false, http.StatusBadRequest},
		{"Missing Category", map[string]any{"monthly_limit": 100}, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			repo := &MockBudgetRepo{
				CategoryTakenFunc: func(ctx context.Context, userID int64, category, excludeID string) (bool, error) {
					return tt.taken, nil
				},
				CreateFunc: func(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
					created = true
					if params.UserID != testUserID || params.ID == "" {
						t.Errorf("params = %+v", params)
					}
					return &budget.Budget{ID: params.ID, Category: params.Category, MonthlyLimit: params.MonthlyLimit}, nil
				},
			}
			handler := newBudgetHandler(repo, &MockAnalyticsRepo{})

			rr := httptest.NewRecorder()
			handler.HandleCreateBudget(rr, newRequest(http.MethodPost, "/api/budgets", tt.body, ""))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if created != (tt.expectedStatus == http.StatusCreated) {
				t.Errorf("repository create called = %v", created)
			}
		})
	}
}

func TestHandleUpdateBudget(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		body           map[string]any
		expectedStatus int
		wantCategory   *string
	}{
		{"Limit Only", testBudgetID, map[string]any{"monthly_limit": 150}, http.StatusOK, nil},
		{"Rename To Own Category", testBudgetID, map[string]any{"category": "FOOD", "monthly_limit": 150}, http.StatusOK, nil},
		{"Rename", testBudgetID, map[string]any{"category": "DINING", "monthly_limit": 150}, http.StatusOK, ptr("DINING")},
		{"Rename Onto Existing", testBudgetID, map[string]any{"category": "TRAVEL", "monthly_limit": 150}, http.StatusConflict, nil},
		{"Zero Limit", testBudgetID, map[string]any{"monthly_limit": 0}, http.StatusBadRequest, nil},
		{"Absent Budget", testTxnID, map[string]any{"monthly_limit": 150}, http.StatusNotFound, nil},
		{"Malformed ID", "budget-1", map[string]any{"monthly_limit": 150}, http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockBudgetRepo{
				GetByIDFunc: func(ctx context.Context, userID int64, id string) (*budget.Budget, error) {
					if id != testBudgetID {
						return nil, budget.ErrBudgetNotFound
					}
					return foodBudget(), nil
				},
				CategoryTakenFunc: func(ctx context.Context, userID int64, category, excludeID string) (bool, error) {
					return category == "TRAVEL", nil
				},
				UpdateFunc: func(ctx context.Context, userID int64, id string, params budget.UpdateParams) (*budget.Budget, error) {
					if (params.Category == nil) != (tt.wantCategory == nil) ||
						(params.Category != nil && *params.Category != *tt.wantCategory) {
						t.Errorf("update category = %v, want %v", params.Category, tt.wantCategory)
					}
					b := foodBudget()
					b.MonthlyLimit = params.MonthlyLimit
					return b, nil
				},
			}
			handler := newBudgetHandler(repo, &MockAnalyticsRepo{})

			rr := httptest.NewRecorder()
			handler.HandleUpdateBudget(rr, newRequest(http.MethodPut, "/api/budgets/"+tt.id, tt.body, tt.id))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleDeleteBudget(t *testing.T) {
	deleted := ""
	repo := &MockBudgetRepo{
		DeleteFunc: func(ctx context.Context, userID int64, id string) error {
			if id != testBudgetID {
				return budget.ErrBudgetNotFound
			}
			deleted = id
			return nil
		},
	}
	handler := newBudgetHandler(repo, &MockAnalyticsRepo{})

	rr := httptest.NewRecorder()
	handler.HandleDeleteBudget(rr, newRequest(http.MethodDelete, "/api/budgets/"+testBudgetID, nil, testBudgetID))
	if rr.Code != http.StatusOK || deleted != testBudgetID {
		t.Errorf("status = %d, deleted = %q", rr.Code, deleted)
	}

	rr = httptest.NewRecorder()
	handler.HandleDeleteBudget(rr, newRequest(http.MethodDelete, "/api/budgets/"+testTxnID, nil, testTxnID))
	if rr.Code != http.StatusNotFound {
		t.Errorf("absent budget status = %d, want 404", rr.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	repo := &MockBudgetRepo{
		ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*budget.Budget, error) {
			return []*budget.Budget{foodBudget()}, nil
		},
	}
	stats := &MockAnalyticsRepo{
		SpentByCategoryFunc: func(ctx context.Context, userID int64, start, end string) (map[string]decimal.Decimal, error) {
			return map[string]decimal.Decimal{"FOOD": mustDecimal("50")}, nil
		},
	}
	handler := newBudgetHandler(repo, stats)

	rr := httptest.NewRecorder()
	handler.HandleStatus(rr, newRequest(http.MethodGet, "/api/budgets/status/current", nil, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp budgetStatusReportResponse
	json.NewDecoder(rr.Body).Decode(&resp)

	if !strings.HasSuffix(resp.Period.Start, "-01") || resp.Period.End < resp.Period.Start {
		t.Errorf("period = %+v", resp.Period)
	}
	if len(resp.Budgets) != 1 {
		t.Fatalf("budgets = %+v", resp.Budgets)
	}
	got := resp.Budgets[0]
	if got.Category != "FOOD" || got.TotalSpent != 50 || got.Remaining != 50 || got.PercentUsed != 50 || got.IsOverBudget {
		t.Errorf("status = %+v", got)
	}
}

func TestHandleHistory(t *testing.T) {
	repo := &MockBudgetRepo{
		GetByIDFunc: func(ctx context.Context, userID int64, id string) (*budget.Budget, error) {
			if id != testBudgetID {
				return nil, budget.ErrBudgetNotFound
			}
			return foodBudget(), nil
		},
	}
	handler := newBudgetHandler(repo, &MockAnalyticsRepo{})

	rr := httptest.NewRecorder()
	handler.HandleHistory(rr, newRequest(http.MethodGet, "/api/budgets/"+testBudgetID+"/history", nil, testBudgetID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp budgetHistoryResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.History) != analytics.HistoryMonths {
		t.Fatalf("history length = %d, want %d", len(resp.History), analytics.HistoryMonths)
	}
	for i, p := range resp.History {
		if p.BudgetLimit != 100 || p.TotalSpent != 0 {
			t.Errorf("history[%d] = %+v", i, p)
		}
		if i > 0 && p.Month >= resp.History[i-1].Month {
			t.Errorf("history not newest first: %s after %s", p.Month, resp.History[i-1].Month)
		}
	}

	rr = httptest.NewRecorder()
	handler.HandleHistory(rr, newRequest(http.MethodGet, "/api/budgets/"+testTxnID+"/history", nil, testTxnID))
	if rr.Code != http.StatusNotFound {
		t.Errorf("absent budget status = %d, want 404", rr.Code)
	}
}
