package http

import (
	"net/http"

	"finboard/internal/domain/investment"
)

type InvestmentHandler struct {
	investments *investment.Service
}

func NewInvestmentHandler(investments *investment.Service) *InvestmentHandler {
	return &InvestmentHandler{investments: investments}
}

type HoldingResponse struct {
	AccountID  string   `json:"account_id"`
	SecurityID string   `json:"security_id"`
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`
	Value      float64  `json:"value"`
	CostBasis  *float64 `json:"cost_basis"`
	Change     *float64 `json:"change"`
}

type InvestmentTransactionResponse struct {
	ID           string   `json:"id"`
	AccountID    string   `json:"account_id"`
	Date         string   `json:"date"`
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
	Symbol       string   `json:"symbol"`
	SecurityName *string  `json:"security_name"`
	Quantity     float64  `json:"quantity"`
	Price        float64  `json:"price"`
	Amount       float64  `json:"amount"`
	Fees         *float64 `json:"fees"`
}

type holdingsResponse struct {
	Holdings []HoldingResponse `json:"holdings"`
}

type investmentTransactionsResponse struct {
	Transactions []InvestmentTransactionResponse `json:"transactions"`
}

// HandleHoldings returns positions across every linked institution that
// supports investments.
func (h *InvestmentHandler) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	holdings, err := h.investments.Holdings(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]HoldingResponse, 0, len(holdings))
	for _, hd := range holdings {
		response = append(response, HoldingResponse{
			AccountID:  hd.AccountID,
			SecurityID: hd.SecurityID,
			Symbol:     hd.Symbol,
			Name:       hd.Name,
			Type:       hd.Type,
			Quantity:   toFloat(hd.Quantity),
			Price:      toFloat(hd.Price),
			Value:      toFloat(hd.Value),
			CostBasis:  toFloatPtr(hd.CostBasis),
			Change:     toFloatPtr(hd.Change),
		})
	}
	writeJSON(w, http.StatusOK, holdingsResponse{Holdings: response})
}

// HandleTransactions returns investment activity between ?start_date and
// ?end_date, defaulting to the last year.
func (h *InvestmentHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	txs, err := h.investments.Transactions(r.Context(), userID, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]InvestmentTransactionResponse, 0, len(txs))
	for _, t := range txs {
		response = append(response, InvestmentTransactionResponse{
			ID:           t.ID,
			AccountID:    t.AccountID,
			Date:         t.Date,
			Name:         t.Name,
			Type:         t.Type,
			Subtype:      t.Subtype,
			Symbol:       t.Symbol,
			SecurityName: t.SecurityName,
			Quantity:     toFloat(t.Quantity),
			Price:        toFloat(t.Price),
			Amount:       toFloat(t.Amount),
			Fees:         toFloatPtr(t.Fees),
		})
	}
	writeJSON(w, http.StatusOK, investmentTransactionsResponse{Transactions: response})
}
