package http

import (
	"net/http"
	"time"

	"finboard/internal/domain/banksync"
	"finboard/internal/domain/institution"
)

// PlaidHandler serves the link flow, manual syncs, and institution management.
type PlaidHandler struct {
	linker       *banksync.AccountSyncService
	syncer       *banksync.TransactionSyncService
	institutions *banksync.InstitutionService
}

func NewPlaidHandler(linker *banksync.AccountSyncService, syncer *banksync.TransactionSyncService, institutions *banksync.InstitutionService) *PlaidHandler {
	return &PlaidHandler{linker: linker, syncer: syncer, institutions: institutions}
}

type linkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type ExchangeTokenRequest struct {
	PublicToken string       `json:"public_token"`
	Metadata    LinkMetadata `json:"metadata"`
}

// LinkMetadata mirrors the metadata object reported by the Link widget.
type LinkMetadata struct {
	Institution struct {
		InstitutionID string `json:"institution_id"`
		Name          string `json:"name"`
	} `json:"institution"`
}

type linkedAccount struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Mask    *string  `json:"mask"`
	Balance *float64 `json:"balance"`
}

type exchangeTokenResponse struct {
	Message  string          `json:"message"`
	ItemID   string          `json:"item_id"`
	Accounts []linkedAccount `json:"accounts"`
}

type syncResponse struct {
	Message  string `json:"message"`
	Added    int    `json:"added"`
	Modified int    `json:"modified"`
	Removed  int    `json:"removed"`
	Skipped  int    `json:"skipped"`
}

type InstitutionResponse struct {
	ID              string    `json:"id"`
	InstitutionID   string    `json:"institution_id"`
	InstitutionName string    `json:"institution_name"`
	CreatedAt       time.Time `json:"created_at"`
}

type institutionsResponse struct {
	Institutions []InstitutionResponse `json:"institutions"`
}

func toInstitutionResponse(i *institution.Institution) InstitutionResponse {
	return InstitutionResponse{
		ID:              i.ID,
		InstitutionID:   i.InstitutionID,
		InstitutionName: i.InstitutionName,
		CreatedAt:       i.CreatedAt,
	}
}

// HandleCreateLinkToken starts the Link flow for the current user.
func (h *PlaidHandler) HandleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	token, err := h.linker.CreateLinkToken(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linkTokenResponse{LinkToken: token})
}

// HandleExchangeToken finalizes a link and stores the institution with its
// accounts.
func (h *PlaidHandler) HandleExchangeToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ExchangeTokenRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.linker.LinkInstitution(r.Context(), userID, req.PublicToken, banksync.LinkMetadata{
		InstitutionID:   req.Metadata.Institution.InstitutionID,
		InstitutionName: req.Metadata.Institution.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	accounts := make([]linkedAccount, 0, len(result.Accounts))
	for _, a := range result.Accounts {
		accounts = append(accounts, linkedAccount{
			Name:    a.Name,
			Type:    a.Type,
			Mask:    a.Mask,
			Balance: toFloatPtr(a.CurrentBalance),
		})
	}

	writeJSON(w, http.StatusOK, exchangeTokenResponse{
		Message:  "Bank account linked successfully",
		ItemID:   result.Institution.ID,
		Accounts: accounts,
	})
}

// HandleSyncTransactions runs an incremental sync of every institution the
// user has linked.
func (h *PlaidHandler) HandleSyncTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.syncer.SyncUserTransactions(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Message:  "Transactions synced successfully",
		Added:    result.Added,
		Modified: result.Modified,
		Removed:  result.Removed,
		Skipped:  result.Skipped,
	})
}

func (h *PlaidHandler) HandleListInstitutions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	items, err := h.institutions.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]InstitutionResponse, 0, len(items))
	for _, i := range items {
		response = append(response, toInstitutionResponse(i))
	}
	writeJSON(w, http.StatusOK, institutionsResponse{Institutions: response})
}

// HandleDeleteInstitution unlinks an institution. Its accounts and
// transactions go with it.
func (h *PlaidHandler) HandleDeleteInstitution(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "institution")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.institutions.Unlink(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Institution unlinked successfully"})
}
