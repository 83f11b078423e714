package plaid

import (
	"github.com/shopspring/decimal"
)

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

type linkTokenCreateRequest struct {
	ClientName   string        `json:"client_name"`
	User         linkTokenUser `json:"user"`
	Products     []string      `json:"products"`
	CountryCodes []string      `json:"country_codes"`
	Language     string        `json:"language"`
}

type linkTokenCreateResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

type publicTokenExchangeRequest struct {
	PublicToken string `json:"public_token"`
}

// ExchangeResult is the long-lived credential for one linked institution.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

type accessTokenRequest struct {
	AccessToken string `json:"access_token"`
}

type Balances struct {
	Current         decimal.NullDecimal `json:"current"`
	Available       decimal.NullDecimal `json:"available"`
	Limit           decimal.NullDecimal `json:"limit"`
	IsoCurrencyCode *string             `json:"iso_currency_code"`
}

type Account struct {
	AccountID    string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName *string  `json:"official_name"`
	Type         string   `json:"type"`
	Subtype      *string  `json:"subtype"`
	Mask         *string  `json:"mask"`
	Balances     Balances `json:"balances"`
}

type accountsGetResponse struct {
	Accounts  []Account `json:"accounts"`
	RequestID string    `json:"request_id"`
}

type PersonalFinanceCategory struct {
	Primary  string `json:"primary"`
	Detailed string `json:"detailed"`
}

// Transaction is one record of the transactions feed. Amount is positive for
// money leaving the account.
type Transaction struct {
	TransactionID           string                   `json:"transaction_id"`
	AccountID               string                   `json:"account_id"`
	Amount                  decimal.Decimal          `json:"amount"`
	Date                    string                   `json:"date"`
	Name                    string                   `json:"name"`
	MerchantName            *string                  `json:"merchant_name"`
	Category                []string                 `json:"category"`
	CategoryID              *string                  `json:"category_id"`
	PersonalFinanceCategory *PersonalFinanceCategory `json:"personal_finance_category"`
	Pending                 bool                     `json:"pending"`
	IsoCurrencyCode         *string                  `json:"iso_currency_code"`
}

type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

type transactionsSyncRequest struct {
	AccessToken string `json:"access_token"`
	Cursor      string `json:"cursor,omitempty"`
	Count       int    `json:"count,omitempty"`
}

// SyncPage is one page of the incremental transactions feed.
type SyncPage struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
	RequestID  string               `json:"request_id"`
}

type Security struct {
	SecurityID   string              `json:"security_id"`
	Name         *string             `json:"name"`
	TickerSymbol *string             `json:"ticker_symbol"`
	Type         *string             `json:"type"`
	ClosePrice   decimal.NullDecimal `json:"close_price"`
}

type Holding struct {
	AccountID        string              `json:"account_id"`
	SecurityID       string              `json:"security_id"`
	Quantity         decimal.Decimal     `json:"quantity"`
	InstitutionPrice decimal.Decimal     `json:"institution_price"`
	InstitutionValue decimal.Decimal     `json:"institution_value"`
	CostBasis        decimal.NullDecimal `json:"cost_basis"`
	IsoCurrencyCode  *string             `json:"iso_currency_code"`
}

type HoldingsResponse struct {
	Accounts   []Account  `json:"accounts"`
	Holdings   []Holding  `json:"holdings"`
	Securities []Security `json:"securities"`
	RequestID  string     `json:"request_id"`
}

type InvestmentTransaction struct {
	InvestmentTransactionID string              `json:"investment_transaction_id"`
	AccountID               string              `json:"account_id"`
	SecurityID              *string             `json:"security_id"`
	Date                    string              `json:"date"`
	Name                    string              `json:"name"`
	Quantity                decimal.Decimal     `json:"quantity"`
	Amount                  decimal.Decimal     `json:"amount"`
	Price                   decimal.Decimal     `json:"price"`
	Fees                    decimal.NullDecimal `json:"fees"`
	Type                    string              `json:"type"`
	Subtype                 string              `json:"subtype"`
	IsoCurrencyCode         *string             `json:"iso_currency_code"`
}

type investmentTransactionsOptions struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
}

type investmentTransactionsRequest struct {
	AccessToken string                        `json:"access_token"`
	StartDate   string                        `json:"start_date"`
	EndDate     string                        `json:"end_date"`
	Options     investmentTransactionsOptions `json:"options"`
}

type InvestmentTransactionsResponse struct {
	Accounts                    []Account               `json:"accounts"`
	Securities                  []Security              `json:"securities"`
	InvestmentTransactions      []InvestmentTransaction `json:"investment_transactions"`
	TotalInvestmentTransactions int                     `json:"total_investment_transactions"`
	RequestID                   string                  `json:"request_id"`
}
