package investment

import (
	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the transaction window used when no start date is
// given.
const DefaultWindowDays = 365

// Holding is a position enriched with its security. Change is the percentage
// move of the security's close price against the per-unit cost basis, and is
// null when either is unknown.
type Holding struct {
	AccountID  string
	SecurityID string
	Symbol     string
	Name       string
	Type       string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Value      decimal.Decimal
	CostBasis  decimal.NullDecimal
	Change     decimal.NullDecimal
}

type Transaction struct {
	ID           string
	AccountID    string
	Date         string
	Name         string
	Type         string
	Subtype      string
	Symbol       string
	SecurityName *string
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Amount       decimal.Decimal
	Fees         decimal.NullDecimal
}
