package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/domain/analytics"
	"finboard/internal/domain/budget"
)

type BudgetHandler struct {
	budgets   *budget.Service
	analytics *analytics.Service
}

func NewBudgetHandler(budgets *budget.Service, analytics *analytics.Service) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, analytics: analytics}
}

type CreateBudgetRequest struct {
	Category     string           `json:"category" validate:"required"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit" validate:"required"`
}

type UpdateBudgetRequest struct {
	Category     *string          `json:"category,omitempty"`
	MonthlyLimit *decimal.Decimal `json:"monthly_limit" validate:"required"`
}

type BudgetResponse struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	MonthlyLimit float64   `json:"monthly_limit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type budgetsResponse struct {
	Budgets []BudgetResponse `json:"budgets"`
}

type budgetResponse struct {
	Message string         `json:"message,omitempty"`
	Budget  BudgetResponse `json:"budget"`
}

// BudgetStatusResponse is a budget with its spending in the current period.
type BudgetStatusResponse struct {
	BudgetResponse
	TotalSpent   float64 `json:"total_spent"`
	Remaining    float64 `json:"remaining"`
	PercentUsed  float64 `json:"percent_used"`
	IsOverBudget bool    `json:"is_over_budget"`
}

type periodResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type budgetStatusReportResponse struct {
	Period  periodResponse         `json:"period"`
	Budgets []BudgetStatusResponse `json:"budgets"`
}

type historyPointResponse struct {
	Month       string  `json:"month"`
	TotalSpent  float64 `json:"total_spent"`
	BudgetLimit float64 `json:"budget_limit"`
	PercentUsed float64 `json:"percent_used"`
}

type budgetHistoryResponse struct {
	Budget  BudgetResponse         `json:"budget"`
	History []historyPointResponse `json:"history"`
}

func toBudgetResponse(b *budget.Budget) BudgetResponse {
	return BudgetResponse{
		ID:           b.ID,
		Category:     b.Category,
		MonthlyLimit: toFloat(b.MonthlyLimit),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func (h *BudgetHandler) HandleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	budgets, err := h.budgets.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		response = append(response, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, budgetsResponse{Budgets: response})
}

func (h *BudgetHandler) HandleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "budget")
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.budgets.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{Budget: toBudgetResponse(b)})
}

func (h *BudgetHandler) HandleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateBudgetRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.budgets.Create(r.Context(), budget.CreateParams{
		UserID:       userID,
		Category:     req.Category,
		MonthlyLimit: *req.MonthlyLimit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, budgetResponse{
		Message: "Budget created successfully",
		Budget:  toBudgetResponse(b),
	})
}

// HandleUpdateBudget changes the limit and, when category is present,
// renames the budget.
func (h *BudgetHandler) HandleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "budget")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateBudgetRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.budgets.Update(r.Context(), userID, id, budget.UpdateParams{
		Category:     req.Category,
		MonthlyLimit: *req.MonthlyLimit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{
		Message: "Budget updated successfully",
		Budget:  toBudgetResponse(b),
	})
}

func (h *BudgetHandler) HandleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "budget")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.budgets.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Budget deleted successfully"})
}

// HandleStatus reports spending against every budget for the current month.
func (h *BudgetHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.analytics.BudgetStatus(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	statuses := make([]BudgetStatusResponse, 0, len(report.Budgets))
	for _, s := range report.Budgets {
		statuses = append(statuses, BudgetStatusResponse{
			BudgetResponse: toBudgetResponse(s.Budget),
			TotalSpent:     toFloat(s.TotalSpent),
			Remaining:      toFloat(s.Remaining),
			PercentUsed:    toFloat(s.PercentUsed),
			IsOverBudget:   s.IsOverBudget,
		})
	}
	writeJSON(w, http.StatusOK, budgetStatusReportResponse{
		Period:  periodResponse{Start: report.Period.Start, End: report.Period.End},
		Budgets: statuses,
	})
}

// HandleHistory returns the last six months of spending for one budget.
func (h *BudgetHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "budget")
	if err != nil {
		writeError(w, r, err)
		return
	}

	hist, err := h.analytics.BudgetHistory(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	points := make([]historyPointResponse, 0, len(hist.History))
	for _, p := range hist.History {
		points = append(points, historyPointResponse{
			Month:       p.Month,
			TotalSpent:  toFloat(p.TotalSpent),
			BudgetLimit: toFloat(p.BudgetLimit),
			PercentUsed: toFloat(p.PercentUsed),
		})
	}
	writeJSON(w, http.StatusOK, budgetHistoryResponse{
		Budget:  toBudgetResponse(hist.Budget),
		History: points,
	})
}
