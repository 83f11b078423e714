// Package analytics derives read-only views from the local ledger. Nothing is
// cached; every call recomputes from the stored rows.
package analytics

import (
	"github.com/shopspring/decimal"

	"finboard/internal/domain/budget"
)

// MonthLayout keys monthly series.
const MonthLayout = "2006-01"

// HistoryMonths is the length of a budget history, current month included.
const HistoryMonths = 6

type CategorySpending struct {
	Category         string
	TotalAmount      decimal.Decimal
	TransactionCount int
}

// MonthlyTotal splits one month into spending (positive amounts) and income
// (absolute value of negative amounts).
type MonthlyTotal struct {
	Month            string
	TotalSpending    decimal.Decimal
	TotalIncome      decimal.Decimal
	TransactionCount int
}

// Period is an inclusive range of calendar days.
type Period struct {
	Start string
	End   string
}

type BudgetStatus struct {
	Budget       *budget.Budget
	TotalSpent   decimal.Decimal
	Remaining    decimal.Decimal
	PercentUsed  decimal.Decimal
	IsOverBudget bool
}

type StatusReport struct {
	Period  Period
	Budgets []BudgetStatus
}

type HistoryPoint struct {
	Month       string
	TotalSpent  decimal.Decimal
	BudgetLimit decimal.Decimal
	PercentUsed decimal.Decimal
}

type BudgetHistory struct {
	Budget  *budget.Budget
	History []HistoryPoint
}

// TypeTotal sums balances of one account type. Balances keep the provider's
// sign, so credit and loan balances add to the total as reported.
type TypeTotal struct {
	Type           string
	TotalCurrent   decimal.Decimal
	TotalAvailable decimal.Decimal
	AccountCount   int
}

type AccountTotals struct {
	Summary      []TypeTotal
	TotalBalance decimal.Decimal
}
