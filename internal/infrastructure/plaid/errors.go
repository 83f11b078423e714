package plaid

import (
	"errors"
	"fmt"
	"slices"
)

// Plaid error codes handled by name.
const (
	CodeProductNotReady          = "PRODUCT_NOT_READY"
	CodeProductsNotSupported     = "PRODUCTS_NOT_SUPPORTED"
	CodeNoInvestmentAccounts     = "NO_INVESTMENT_ACCOUNTS"
	CodeItemLoginRequired        = "ITEM_LOGIN_REQUIRED"
	CodeMutationDuringPagination = "TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION"
)

// Error is the error body Plaid returns with every non-2xx response.
type Error struct {
	ErrorType      string  `json:"error_type"`
	ErrorCode      string  `json:"error_code"`
	ErrorMessage   string  `json:"error_message"`
	DisplayMessage *string `json:"display_message"`
	RequestID      string  `json:"request_id"`
	StatusCode     int     `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("plaid %s/%s (status %d): %s", e.ErrorType, e.ErrorCode, e.StatusCode, e.ErrorMessage)
}

// HasErrorCode reports whether err carries a Plaid error with one of codes.
func HasErrorCode(err error, codes ...string) bool {
	var perr *Error
	if !errors.As(err, &perr) {
		return false
	}
	return slices.Contains(codes, perr.ErrorCode)
}
