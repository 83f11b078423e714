package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/domain/budget"
	"finboard/internal/domain/transaction"
	"finboard/internal/shared/errs"
)

var hundred = decimal.NewFromInt(100)

type Service struct {
	repo    Repository
	budgets budget.Repository
	now     func() time.Time
}

func NewService(repo Repository, budgets budget.Repository) *Service {
	return &Service{repo: repo, budgets: budgets, now: time.Now}
}

// SpendingByCategory sums positive amounts per category between the optional
// inclusive bounds.
func (s *Service) SpendingByCategory(ctx context.Context, userID int64, start, end string) ([]CategorySpending, error) {
	if err := transaction.ValidateDate("start_date", start); err != nil {
		return nil, err
	}
	if err := transaction.ValidateDate("end_date", end); err != nil {
		return nil, err
	}
	return s.repo.SpendingByCategory(ctx, userID, start, end)
}

// MonthlySeries returns spending and income per month of year. An empty year
// means the current one.
func (s *Service) MonthlySeries(ctx context.Context, userID int64, year string) ([]MonthlyTotal, error) {
	y := s.now().Year()
	if year != "" {
		parsed, err := strconv.Atoi(year)
		if err != nil || len(year) != 4 || parsed < 1 {
			return nil, errs.Validation("year must be a four-digit year")
		}
		y = parsed
	}
	return s.repo.MonthlyTotals(ctx, userID, y)
}

// BudgetStatus reports each budget against spend in the current calendar
// month, first through last day.
func (s *Service) BudgetStatus(ctx context.Context, userID int64) (*StatusReport, error) {
	period := monthPeriod(s.now())

	budgets, err := s.budgets.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	spent, err := s.repo.SpentByCategory(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Period: period, Budgets: make([]BudgetStatus, 0, len(budgets))}
	for _, b := range budgets {
		total := spent[b.Category]
		remaining := b.MonthlyLimit.Sub(total)
		report.Budgets = append(report.Budgets, BudgetStatus{
			Budget:       b,
			TotalSpent:   total,
			Remaining:    remaining,
			PercentUsed:  percentOf(total, b.MonthlyLimit),
			IsOverBudget: remaining.IsNegative(),
		})
	}
	return report, nil
}

// BudgetHistory returns spend for the budget's category over the last
// HistoryMonths calendar months, newest first. Months without spend are
// reported as zero.
func (s *Service) BudgetHistory(ctx context.Context, userID int64, budgetID string) (*BudgetHistory, error) {
	b, err := s.budgets.GetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month()-(HistoryMonths-1), 1, 0, 0, 0, 0, time.UTC)
	current := monthPeriod(now)

	byMonth, err := s.repo.MonthlySpendForCategory(ctx, userID, b.Category, first.Format(transaction.DateLayout), current.End)
	if err != nil {
		return nil, err
	}

	history := make([]HistoryPoint, 0, HistoryMonths)
	for i := 0; i < HistoryMonths; i++ {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout)
		total := byMonth[month]
		history = append(history, HistoryPoint{
			Month:       month,
			TotalSpent:  total,
			BudgetLimit: b.MonthlyLimit,
			PercentUsed: percentOf(total, b.MonthlyLimit),
		})
	}

	return &BudgetHistory{Budget: b, History: history}, nil
}

// AccountSummaryTotals sums current balances per account type and overall.
func (s *Service) AccountSummaryTotals(ctx context.Context, userID int64) (*AccountTotals, error) {
	summary, err := s.repo.AccountTotalsByType(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := &AccountTotals{Summary: summary, TotalBalance: decimal.Zero}
	for _, t := range summary {
		totals.TotalBalance = totals.TotalBalance.Add(t.TotalCurrent)
	}
	return totals, nil
}

// monthPeriod spans the calendar month containing t.
func monthPeriod(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return Period{
		Start: first.Format(transaction.DateLayout),
		End:   last.Format(transaction.DateLayout),
	}
}

// percentOf returns 100*part/whole rounded to two places. whole is a budget
// limit and is never zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}
