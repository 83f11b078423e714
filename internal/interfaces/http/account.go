package http

import (
	"net/http"
	"time"

	"finboard/internal/domain/account"
	"finboard/internal/domain/analytics"
	"finboard/internal/domain/banksync"
)

type AccountHandler struct {
	accounts  *account.Service
	balances  *banksync.AccountSyncService
	analytics *analytics.Service
}

func NewAccountHandler(accounts *account.Service, balances *banksync.AccountSyncService, analytics *analytics.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts, balances: balances, analytics: analytics}
}

// AccountResponse is the wire form of an account. Balances are null when the
// provider did not report them.
type AccountResponse struct {
	ID               string    `json:"id"`
	PlaidItemID      string    `json:"plaid_item_id"`
	AccountID        string    `json:"account_id"`
	Name             string    `json:"name"`
	OfficialName     *string   `json:"official_name"`
	Type             string    `json:"type"`
	Subtype          *string   `json:"subtype"`
	Mask             *string   `json:"mask"`
	CurrentBalance   *float64  `json:"current_balance"`
	AvailableBalance *float64  `json:"available_balance"`
	IsoCurrencyCode  *string   `json:"iso_currency_code"`
	InstitutionName  string    `json:"institution_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type accountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type accountResponse struct {
	Account AccountResponse `json:"account"`
}

type refreshBalancesResponse struct {
	Message  string            `json:"message"`
	Accounts []AccountResponse `json:"accounts"`
}

type typeTotalResponse struct {
	Type           string  `json:"type"`
	TotalCurrent   float64 `json:"total_current"`
	TotalAvailable float64 `json:"total_available"`
	AccountCount   int     `json:"account_count"`
}

type accountTotalsResponse struct {
	Summary      []typeTotalResponse `json:"summary"`
	TotalBalance float64             `json:"total_balance"`
}

func toAccountResponse(a *account.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		PlaidItemID:      a.InstitutionID,
		AccountID:        a.AccountID,
		Name:             a.Name,
		OfficialName:     a.OfficialName,
		Type:             a.Type,
		Subtype:          a.Subtype,
		Mask:             a.Mask,
		CurrentBalance:   toFloatPtr(a.CurrentBalance),
		AvailableBalance: toFloatPtr(a.AvailableBalance),
		IsoCurrencyCode:  a.IsoCurrencyCode,
		InstitutionName:  a.InstitutionName,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAccountResponses(accounts []*account.Account) []AccountResponse {
	response := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, toAccountResponse(a))
	}
	return response
}

// HandleListAccounts returns all accounts for the authenticated user.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountsResponse{Accounts: toAccountResponses(accounts)})
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "account")
	if err != nil {
		writeError(w, r, err)
		return
	}

	acc, err := h.accounts.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{Account: toAccountResponse(acc)})
}

// HandleRefreshBalances pulls fresh balances from the provider for every
// linked institution.
func (h *AccountHandler) HandleRefreshBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.balances.RefreshBalances(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshBalancesResponse{
		Message:  "Balances refreshed successfully",
		Accounts: toAccountResponses(accounts),
	})
}

// HandleSummaryTotals returns balance totals per account type.
func (h *AccountHandler) HandleSummaryTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	totals, err := h.analytics.AccountSummaryTotals(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := make([]typeTotalResponse, 0, len(totals.Summary))
	for _, t := range totals.Summary {
		summary = append(summary, typeTotalResponse{
			Type:           t.Type,
			TotalCurrent:   toFloat(t.TotalCurrent),
			TotalAvailable: toFloat(t.TotalAvailable),
			AccountCount:   t.AccountCount,
		})
	}
	writeJSON(w, http.StatusOK, accountTotalsResponse{
		Summary:      summary,
		TotalBalance: toFloat(totals.TotalBalance),
	})
}
