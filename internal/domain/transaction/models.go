package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/shared/errs"
)

// DateLayout is the calendar-day format used for transaction dates and
// date filters.
const DateLayout = "2006-01-02"

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var ErrTransactionNotFound = errs.NotFound("transaction")

var sortColumns = map[string]struct{}{
	"date":     {},
	"amount":   {},
	"name":     {},
	"category": {},
}

// Transaction is one ledger entry. Amount is positive for spend and negative
// for inflow.
type Transaction struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	UserID          int64           `json:"-"`
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	Name            string          `json:"name"`
	MerchantName    *string         `json:"merchant_name"`
	Category        *string         `json:"category"`
	CategoryID      *string         `json:"category_id"`
	Pending         bool            `json:"pending"`
	IsoCurrencyCode *string         `json:"iso_currency_code"`
	AccountName     string          `json:"account_name,omitempty"`
	AccountMask     *string         `json:"account_mask,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// UpsertParams replaces the full row keyed by TransactionID.
type UpsertParams struct {
	ID              string
	AccountID       string
	UserID          int64
	TransactionID   string
	Amount          decimal.Decimal
	Date            string
	Name            string
	MerchantName    *string
	Category        string
	CategoryID      *string
	Pending         bool
	IsoCurrencyCode *string
}

// ModifyParams are the fields a provider modification may change.
type ModifyParams struct {
	UserID        int64
	TransactionID string
	Amount        decimal.Decimal
	Date          string
	Name          string
	MerchantName  *string
	Category      string
	Pending       bool
}

// ListFilter selects a page of the user's transactions. Zero values mean
// "no filter"; ApplyDefaults fills in paging and ordering.
type ListFilter struct {
	UserID    int64
	AccountID string
	Category  string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
	Sort      string
	Order     string
}

func (f *ListFilter) ApplyDefaults() {
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Sort == "" {
		f.Sort = "date"
	}
	f.Order = strings.ToUpper(f.Order)
	if f.Order == "" {
		f.Order = "DESC"
	}
}

func (f ListFilter) Validate() error {
	if f.Limit < 1 || f.Limit > MaxLimit {
		return errs.Validation("limit must be between 1 and %d", MaxLimit)
	}
	if f.AccountID != "" && uuid.Validate(f.AccountID) != nil {
		return errs.Validation("account_id must be a valid account id")
	}
	if f.Offset < 0 {
		return errs.Validation("offset must not be negative")
	}
	if _, ok := sortColumns[f.Sort]; !ok {
		return errs.Validation("sort must be one of date, amount, name, category")
	}
	if f.Order != "ASC" && f.Order != "DESC" {
		return errs.Validation("order must be ASC or DESC")
	}
	if err := ValidateDate("start_date", f.StartDate); err != nil {
		return err
	}
	if err := ValidateDate("end_date", f.EndDate); err != nil {
		return err
	}
	if f.StartDate != "" && f.EndDate != "" && f.StartDate > f.EndDate {
		return errs.Validation("start_date must not be after end_date")
	}
	return nil
}

// Page is one page of a filtered listing.
type Page struct {
	Transactions []*Transaction
	Total        int
	Limit        int
	Offset       int
}

func (p Page) HasMore() bool {
	return p.Offset+len(p.Transactions) < p.Total
}

// ValidateDate accepts "" or a YYYY-MM-DD calendar day.
func ValidateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return errs.Validation("%s must be a YYYY-MM-DD date", field)
	}
	return nil
}
