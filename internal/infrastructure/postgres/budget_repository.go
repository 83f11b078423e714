package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finboard/internal/domain/budget"
)

type BudgetRepository struct {
	db *DB
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

const budgetColumns = `id, user_id, category, monthly_limit, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (*budget.Budget, error) {
	var b budget.Budget
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthlyLimit, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepository) Create(ctx context.Context, params budget.CreateParams) (*budget.Budget, error) {
	query := `
		INSERT INTO budgets (id, user_id, category, monthly_limit)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + budgetColumns

	b, err := scanBudget(r.db.QueryRowContext(ctx, query, params.ID, params.UserID, params.Category, params.MonthlyLimit))
	if isUniqueViolation(err) {
		return nil, budget.ErrDuplicateCategory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepository) GetByID(ctx context.Context, userID int64, id string) (*budget.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = $1 AND user_id = $2`

	b, err := scanBudget(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepository) ListByUserID(ctx context.Context, userID int64) ([]*budget.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = $1 ORDER BY category`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []*budget.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

func (r *BudgetRepository) CategoryTaken(ctx context.Context, userID int64, category, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND category = $2 AND id::text <> $3
		)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, userID, category, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check budget category: %w", err)
	}
	return taken, nil
}

func (r *BudgetRepository) Update(ctx context.Context, userID int64, id string, params budget.UpdateParams) (*budget.Budget, error) {
	query := `
		UPDATE budgets
		SET category = COALESCE($1, category),
		    monthly_limit = $2,
		    updated_at = now()
		WHERE id = $3 AND user_id = $4
		RETURNING ` + budgetColumns

	b, err := scanBudget(r.db.QueryRowContext(ctx, query, params.Category, params.MonthlyLimit, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, budget.ErrBudgetNotFound
	}
	if isUniqueViolation(err) {
		return nil, budget.ErrDuplicateCategory
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepository) Delete(ctx context.Context, userID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n == 0 {
		return budget.ErrBudgetNotFound
	}
	return nil
}
