package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finboard/internal/domain/category"
)

const testCategoryID = "a8098c1a-f86e-11da-bd1a-00112444be1e"

func TestHandleListCategories(t *testing.T) {
	tests := []struct {
		name           string
		mockRepo       func() *MockCategoryRepo
		expectedStatus int
		expectedLen    int
	}{
		{
			name: "Success",
			mockRepo: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*category.Category, error) {
						return []*category.Category{
							{ID: "cat-1", Name: "COFFEE", Color: "#FF0000"},
							{ID: "cat-2", Name: "PETS", Color: "#00FF00"},
						}, nil
					},
				}
			},
			expectedStatus: http.StatusOK,
			expectedLen:    2,
		},
		{
			name:           "Empty List",
			mockRepo:       func() *MockCategoryRepo { return &MockCategoryRepo{} },
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name: "Repository Error",
			mockRepo: func() *MockCategoryRepo {
				return &MockCategoryRepo{
					ListByUserIDFunc: func(ctx context.Context, userID int64) ([]*category.Category, error) {
						return nil, errors.New("db error")
					},
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCategoryHandler(category.NewService(tt.mockRepo()))

			rr := httptest.NewRecorder()
			handler.HandleListCategories(rr, newRequest(http.MethodGet, "/api/categories", nil, ""))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK {
				var resp customCategoriesResponse
				json.NewDecoder(rr.Body).Decode(&resp)
				if len(resp.Categories) != tt.expectedLen {
					t.Errorf("response length = %d, want %d", len(resp.Categories), tt.expectedLen)
				}
			}
		})
	}
}

func TestHandleCreateCategory(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		taken          bool
		expectedStatus int
		wantName       string
		wantColor      string
	}{
		{"Canonicalizes Name", map[string]any{"name": " Food & Drink "}, false, http.StatusCreated, "FOOD_AND_DRINK", category.DefaultColor},
		{"Custom Color", map[string]any{"name": "pets", "color": "#10B981"}, false, http.StatusCreated, "PETS", "#10B981"},
		{"Duplicate", map[string]any{"name": "coffee shops"}, true, http.StatusConflict, "", ""},
		{"Blank Name", map[string]any{"name": "   "}, false, http.StatusBadRequest, "", ""},
		{"Bad Color", map[string]any{"name": "pets", "color": "green"}, false, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockCategoryRepo{
				NameTakenFunc: func(ctx context.Context, userID int64, name, excludeID string) (bool, error) {
					return tt.taken, nil
				},
				CreateFunc: func(ctx context.Context, params category.CreateParams) (*category.Category, error) {
					return &category.Category{ID: params.ID, UserID: params.UserID, Name: params.Name, Color: params.Color}, nil
				},
			}
			handler := NewCategoryHandler(category.NewService(repo))

			rr := httptest.NewRecorder()
			handler.HandleCreateCategory(rr, newRequest(http.MethodPost, "/api/categories", tt.body, ""))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				return
			}
			var resp categoryResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Category.Name != tt.wantName || resp.Category.Color != tt.wantColor {
				t.Errorf("category = %+v, want %s/%s", resp.Category, tt.wantName, tt.wantColor)
			}
		})
	}
}

func TestHandleUpdateCategory_Rename(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		body           map[string]any
		expectedStatus int
	}{
		{"Rename", testCategoryID, map[string]any{"name": "dog food"}, http.StatusOK},
		{"Same Name Different Case", testCategoryID, map[string]any{"name": "pets"}, http.StatusOK},
		{"Onto Existing", testCategoryID, map[string]any{"name": "coffee"}, http.StatusConflict},
		{"Absent", testBudgetID, map[string]any{"name": "x"}, http.StatusNotFound},
		{"Malformed ID", "cat-1", map[string]any{"name": "x"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockCategoryRepo{
				GetByIDFunc: func(ctx context.Context, userID int64, id string) (*category.Category, error) {
					if id != testCategoryID {
						return nil, category.ErrCategoryNotFound
					}
					return &category.Category{ID: id, Name: "PETS", Color: category.DefaultColor}, nil
				},
				NameTakenFunc: func(ctx context.Context, userID int64, name, excludeID string) (bool, error) {
					return name == "COFFEE", nil
				},
				UpdateFunc: func(ctx context.Context, userID int64, id string, params category.UpdateParams) (*category.Category, error) {
					c := &category.Category{ID: id, Name: "PETS", Color: category.DefaultColor}
					if params.Name != nil {
						c.Name = *params.Name
					}
					return c, nil
				},
			}
			handler := NewCategoryHandler(category.NewService(repo))

			rr := httptest.NewRecorder()
			handler.HandleUpdateCategory(rr, newRequest(http.MethodPut, "/api/categories/"+tt.id, tt.body, tt.id))

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}
		})
	}
}

func TestHandleDeleteCategory(t *testing.T) {
	repo := &MockCategoryRepo{
		DeleteFunc: func(ctx context.Context, userID int64, id string) error {
			if id != testCategoryID {
				return category.ErrCategoryNotFound
			}
			return nil
		},
	}
	handler := NewCategoryHandler(category.NewService(repo))

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{"Success", testCategoryID, http.StatusOK},
		{"Absent", testBudgetID, http.StatusNotFound},
		{"Malformed ID", "cat-1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.HandleDeleteCategory(rr, newRequest(http.MethodDelete, "/api/categories/"+tt.id, nil, tt.id))
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}
