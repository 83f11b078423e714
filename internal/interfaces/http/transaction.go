package http

import (
	"net/http"
	"time"

	"finboard/internal/domain/analytics"
	"finboard/internal/domain/transaction"
)

type TransactionHandler struct {
	transactions *transaction.Service
	analytics    *analytics.Service
}

func NewTransactionHandler(transactions *transaction.Service, analytics *analytics.Service) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, analytics: analytics}
}

type TransactionResponse struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	TransactionID   string    `json:"transaction_id"`
	Amount          float64   `json:"amount"`
	Date            string    `json:"date"`
	Name            string    `json:"name"`
	MerchantName    *string   `json:"merchant_name"`
	Category        *string   `json:"category"`
	CategoryID      *string   `json:"category_id"`
	Pending         bool      `json:"pending"`
	IsoCurrencyCode *string   `json:"iso_currency_code"`
	AccountName     string    `json:"account_name"`
	AccountMask     *string   `json:"account_mask"`
	CreatedAt       time.Time `json:"created_at"`
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

type transactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   Pagination            `json:"pagination"`
}

type transactionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
}

type UpdateCategoryRequest struct {
	Category string `json:"category" validate:"required"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type categorySpendingResponse struct {
	Category         string  `json:"category"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
}

type spendingResponse struct {
	Spending []categorySpendingResponse `json:"spending"`
}

type monthlyTotalResponse struct {
	Month            string  `json:"month"`
	TotalSpending    float64 `json:"total_spending"`
	TotalIncome      float64 `json:"total_income"`
	TransactionCount int     `json:"transaction_count"`
}

type monthlyResponse struct {
	Monthly []monthlyTotalResponse `json:"monthly"`
}

func toTransactionResponse(t *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		AccountID:       t.AccountID,
		TransactionID:   t.TransactionID,
		Amount:          toFloat(t.Amount),
		Date:            t.Date,
		Name:            t.Name,
		MerchantName:    t.MerchantName,
		Category:        t.Category,
		CategoryID:      t.CategoryID,
		Pending:         t.Pending,
		IsoCurrencyCode: t.IsoCurrencyCode,
		AccountName:     t.AccountName,
		AccountMask:     t.AccountMask,
		CreatedAt:       t.CreatedAt,
	}
}

// HandleListTransactions returns one filtered page of the user's ledger.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := transaction.ListFilter{
		UserID:    userID,
		AccountID: q.Get("account_id"),
		Category:  q.Get("category"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Sort:      q.Get("sort"),
		Order:     q.Get("order"),
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]TransactionResponse, 0, len(page.Transactions))
	for _, t := range page.Transactions {
		response = append(response, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, transactionListResponse{
		Transactions: response,
		Pagination: Pagination{
			Total:   page.Total,
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.HasMore(),
		},
	})
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.transactions.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Transaction: toTransactionResponse(t)})
}

// HandleUpdateCategory relabels one transaction.
func (h *TransactionHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "transaction")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req UpdateCategoryRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.transactions.UpdateCategory(r.Context(), userID, id, req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Transaction: toTransactionResponse(t)})
}

// HandleCategories lists the distinct categories present in the ledger.
func (h *TransactionHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	categories, err := h.transactions.Categories(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

// HandleSpendingByCategory groups spend by category within an optional
// start_date/end_date range.
func (h *TransactionHandler) HandleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	rows, err := h.analytics.SpendingByCategory(r.Context(), userID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]categorySpendingResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, categorySpendingResponse{
			Category:         row.Category,
			TotalAmount:      toFloat(row.TotalAmount),
			TransactionCount: row.TransactionCount,
		})
	}
	writeJSON(w, http.StatusOK, spendingResponse{Spending: response})
}

// HandleMonthly returns spending and income per month of ?year (default:
// the current year).
func (h *TransactionHandler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rows, err := h.analytics.MonthlySeries(r.Context(), userID, r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]monthlyTotalResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, monthlyTotalResponse{
			Month:            row.Month,
			TotalSpending:    toFloat(row.TotalSpending),
			TotalIncome:      toFloat(row.TotalIncome),
			TransactionCount: row.TransactionCount,
		})
	}
	writeJSON(w, http.StatusOK, monthlyResponse{Monthly: response})
}
