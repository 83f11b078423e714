package analytics

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository runs the aggregate queries. Date bounds are inclusive
// YYYY-MM-DD strings; an empty bound is open. Only positive amounts count as
// spend.
type Repository interface {
	// SpendingByCategory groups spend by category, largest total first.
	// Rows without a category are reported as "Uncategorized".
	SpendingByCategory(ctx context.Context, userID int64, start, end string) ([]CategorySpending, error)

	// MonthlyTotals returns one row per month of year that has transactions,
	// in month order.
	MonthlyTotals(ctx context.Context, userID int64, year int) ([]MonthlyTotal, error)

	// SpentByCategory sums spend per exact category string within the range.
	SpentByCategory(ctx context.Context, userID int64, start, end string) (map[string]decimal.Decimal, error)

	// MonthlySpendForCategory sums spend of one category per YYYY-MM month
	// within the range. Months without spend are absent.
	MonthlySpendForCategory(ctx context.Context, userID int64, category, start, end string) (map[string]decimal.Decimal, error)

	AccountTotalsByType(ctx context.Context, userID int64) ([]TypeTotal, error)
}
