package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/shared/errs"
)

// Account types as reported by the provider. Anything else is stored as
// TypeOther.
const (
	TypeDepository = "depository"
	TypeCredit     = "credit"
	TypeInvestment = "investment"
	TypeLoan       = "loan"
	TypeOther      = "other"
)

var accountTypes = map[string]struct{}{
	TypeDepository: {},
	TypeCredit:     {},
	TypeInvestment: {},
	TypeLoan:       {},
	TypeOther:      {},
}

var ErrAccountNotFound = errs.NotFound("account")

// Account is one bank, credit, investment or loan account under a linked
// institution.
type Account struct {
	ID               string              `json:"id"`
	InstitutionID    string              `json:"plaid_item_id"`
	UserID           int64               `json:"-"`
	AccountID        string              `json:"account_id"`
	Name             string              `json:"name"`
	OfficialName     *string             `json:"official_name"`
	Type             string              `json:"type"`
	Subtype          *string             `json:"subtype"`
	Mask             *string             `json:"mask"`
	CurrentBalance   decimal.NullDecimal `json:"current_balance"`
	AvailableBalance decimal.NullDecimal `json:"available_balance"`
	IsoCurrencyCode  *string             `json:"iso_currency_code"`
	InstitutionName  string              `json:"institution_name,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// UpsertParams creates an account or refreshes it when the
// (institution, external account id) pair already exists.
type UpsertParams struct {
	ID               string
	InstitutionID    string
	UserID           int64
	AccountID        string
	Name             string
	OfficialName     *string
	Type             string
	Subtype          *string
	Mask             *string
	CurrentBalance   decimal.NullDecimal
	AvailableBalance decimal.NullDecimal
	IsoCurrencyCode  *string
}

func (p UpsertParams) Validate() error {
	if p.ID == "" {
		return errors.New("account ID is required for upsert")
	}
	if p.UserID <= 0 {
		return errors.New("valid user ID is required for upsert")
	}
	if p.InstitutionID == "" || p.AccountID == "" {
		return errors.New("institution and external account IDs are required")
	}
	if !IsValidType(p.Type) {
		return errs.Validation("invalid account type %q", p.Type)
	}
	return nil
}

// BalanceUpdate carries fresh balances for one external account.
type BalanceUpdate struct {
	InstitutionID string
	AccountID     string
	Current       decimal.NullDecimal
	Available     decimal.NullDecimal
}

func IsValidType(t string) bool {
	_, ok := accountTypes[t]
	return ok
}

// NormalizeType maps unknown provider types to TypeOther.
func NormalizeType(t string) string {
	if IsValidType(t) {
		return t
	}
	return TypeOther
}
