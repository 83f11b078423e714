package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/domain/analytics"
	"finboard/internal/domain/transaction"
)

type AnalyticsRepository struct {
	db *DB
}

func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// spendWhere builds the predicate shared by the spend queries. The user id is
// always $1; empty bounds are left open.
func spendWhere(userID int64, start, end string) (string, []any) {
	conds := []string{"user_id = $1", "amount > 0"}
	args := []any{userID}
	if start != "" {
		args = append(args, start)
		conds = append(conds, fmt.Sprintf("date >= $%d::date", len(args)))
	}
	if end != "" {
		args = append(args, end)
		conds = append(conds, fmt.Sprintf("date <= $%d::date", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (r *AnalyticsRepository) SpendingByCategory(ctx context.Context, userID int64, start, end string) ([]analytics.CategorySpending, error) {
	where, args := spendWhere(userID, start, end)
	args = append(args, transaction.Uncategorized)
	query := fmt.Sprintf(`
		SELECT COALESCE(category, $%d) AS category,
		       SUM(amount) AS total_amount,
		       COUNT(*) AS transaction_count
		FROM transactions
		WHERE %s
		GROUP BY 1
		ORDER BY total_amount DESC, category`, len(args), where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spending by category: %w", err)
	}
	defer rows.Close()

	spending := []analytics.CategorySpending{}
	for rows.Next() {
		var s analytics.CategorySpending
		if err := rows.Scan(&s.Category, &s.TotalAmount, &s.TransactionCount); err != nil {
			return nil, fmt.Errorf("failed to scan category spending: %w", err)
		}
		spending = append(spending, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category spending: %w", err)
	}
	return spending, nil
}

func (r *AnalyticsRepository) MonthlyTotals(ctx context.Context, userID int64, year int) ([]analytics.MonthlyTotal, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM') AS month,
		       COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS total_spending,
		       COALESCE(SUM(-amount) FILTER (WHERE amount < 0), 0) AS total_income,
		       COUNT(*) AS transaction_count
		FROM transactions
		WHERE user_id = $1 AND EXTRACT(YEAR FROM date) = $2
		GROUP BY 1
		ORDER BY 1`

	rows, err := r.db.QueryContext(ctx, query, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly totals: %w", err)
	}
	defer rows.Close()

	monthly := []analytics.MonthlyTotal{}
	for rows.Next() {
		var m analytics.MonthlyTotal
		if err := rows.Scan(&m.Month, &m.TotalSpending, &m.TotalIncome, &m.TransactionCount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		monthly = append(monthly, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly totals: %w", err)
	}
	return monthly, nil
}

func (r *AnalyticsRepository) SpentByCategory(ctx context.Context, userID int64, start, end string) (map[string]decimal.Decimal, error) {
	where, args := spendWhere(userID, start, end)
	query := `
		SELECT category, SUM(amount)
		FROM transactions
		WHERE ` + where + ` AND category IS NOT NULL
		GROUP BY category`

	return r.sumsByKey(ctx, query, args)
}

func (r *AnalyticsRepository) MonthlySpendForCategory(ctx context.Context, userID int64, category, start, end string) (map[string]decimal.Decimal, error) {
	where, args := spendWhere(userID, start, end)
	args = append(args, category)
	query := fmt.Sprintf(`
		SELECT to_char(date, 'YYYY-MM'), SUM(amount)
		FROM transactions
		WHERE %s AND category = $%d
		GROUP BY 1`, where, len(args))

	return r.sumsByKey(ctx, query, args)
}

func (r *AnalyticsRepository) sumsByKey(ctx context.Context, query string, args []any) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spend: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			key string
			sum decimal.Decimal
		)
		if err := rows.Scan(&key, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan spend: %w", err)
		}
		sums[key] = sum
	}
	return sums, rows.Err()
}

func (r *AnalyticsRepository) AccountTotalsByType(ctx context.Context, userID int64) ([]analytics.TypeTotal, error) {
	query := `
		SELECT type,
		       COALESCE(SUM(current_balance), 0),
		       COALESCE(SUM(available_balance), 0),
		       COUNT(*)
		FROM accounts
		WHERE user_id = $1
		GROUP BY type
		ORDER BY type`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate account totals: %w", err)
	}
	defer rows.Close()

	totals := []analytics.TypeTotal{}
	for rows.Next() {
		var t analytics.TypeTotal
		if err := rows.Scan(&t.Type, &t.TotalCurrent, &t.TotalAvailable, &t.AccountCount); err != nil {
			return nil, fmt.Errorf("failed to scan account totals: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account totals: %w", err)
	}
	return totals, nil
}
