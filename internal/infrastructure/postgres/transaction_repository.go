package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finboard/internal/domain/transaction"
)

type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	t.id, t.account_id, t.user_id, t.transaction_id, t.amount,
	to_char(t.date, 'YYYY-MM-DD'), t.name, t.merchant_name, t.category,
	t.category_id, t.pending, t.iso_currency_code, a.name, a.mask, t.created_at`

// sortExpressions maps the public sort keys to SQL.
var sortExpressions = map[string]string{
	"date":     "t.date",
	"amount":   "t.amount",
	"name":     "t.name",
	"category": "t.category",
}

func scanTransaction(row interface{ Scan(...any) error }) (*transaction.Transaction, error) {
	var t transaction.Transaction
	err := row.Scan(
		&t.ID, &t.AccountID, &t.UserID, &t.TransactionID, &t.Amount,
		&t.Date, &t.Name, &t.MerchantName, &t.Category,
		&t.CategoryID, &t.Pending, &t.IsoCurrencyCode, &t.AccountName, &t.AccountMask, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert replaces every provider-owned column of an existing row and keeps
// its local id. A conflicting row owned by another user is left untouched.
func (r *TransactionRepository) Upsert(ctx context.Context, params transaction.UpsertParams) (bool, error) {
	query := `
		INSERT INTO transactions (
			id, account_id, user_id, transaction_id, amount, date, name,
			merchant_name, category, category_id, pending, iso_currency_code
		)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (transaction_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			user_id = EXCLUDED.user_id,
			amount = EXCLUDED.amount,
			date = EXCLUDED.date,
			name = EXCLUDED.name,
			merchant_name = EXCLUDED.merchant_name,
			category = EXCLUDED.category,
			category_id = EXCLUDED.category_id,
			pending = EXCLUDED.pending,
			iso_currency_code = EXCLUDED.iso_currency_code
		WHERE transactions.user_id = EXCLUDED.user_id`

	res, err := r.db.ExecContext(ctx, query,
		params.ID, params.AccountID, params.UserID, params.TransactionID, params.Amount,
		params.Date, params.Name, params.MerchantName, params.Category, params.CategoryID,
		params.Pending, params.IsoCurrencyCode,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return n > 0, nil
}

func (r *TransactionRepository) ApplyModification(ctx context.Context, params transaction.ModifyParams) (bool, error) {
	query := `
		UPDATE transactions
		SET amount = $1, date = $2::date, name = $3, merchant_name = $4, category = $5, pending = $6
		WHERE transaction_id = $7 AND user_id = $8`

	res, err := r.db.ExecContext(ctx, query,
		params.Amount, params.Date, params.Name, params.MerchantName, params.Category, params.Pending,
		params.TransactionID, params.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to modify transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to modify transaction: %w", err)
	}
	return n > 0, nil
}

func (r *TransactionRepository) DeleteByExternalID(ctx context.Context, userID int64, transactionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE transaction_id = $1 AND user_id = $2`,
		transactionID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return n > 0, nil
}

// List returns one page of the filtered listing and the total match count.
// The filter must have been validated.
func (r *TransactionRepository) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, int, error) {
	where, args := listWhere(f)

	var total int
	countQuery := `SELECT COUNT(*) FROM transactions t WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	sortExpr, ok := sortExpressions[f.Sort]
	if !ok {
		sortExpr = sortExpressions["date"]
	}
	order := "DESC"
	if f.Order == "ASC" {
		order = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE %s
		ORDER BY %s %s NULLS LAST, t.created_at DESC, t.id
		LIMIT $%d OFFSET $%d`,
		transactionColumns, where, sortExpr, order, len(args)+1, len(args)+2,
	)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []*transaction.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, total, nil
}

// listWhere builds the predicate for f. The user id is always $1.
func listWhere(f transaction.ListFilter) (string, []any) {
	conds := []string{"t.user_id = $1"}
	args := []any{f.UserID}

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.AccountID != "" {
		add("t.account_id = $%d", f.AccountID)
	}
	if f.Category != "" {
		add("t.category = $%d", f.Category)
	}
	if f.StartDate != "" {
		add("t.date >= $%d::date", f.StartDate)
	}
	if f.EndDate != "" {
		add("t.date <= $%d::date", f.EndDate)
	}
	return strings.Join(conds, " AND "), args
}

func (r *TransactionRepository) GetByID(ctx context.Context, userID int64, id string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.id = $1 AND t.user_id = $2`

	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) UpdateCategory(ctx context.Context, userID int64, id, category string) (*transaction.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET category = $1 WHERE id = $2 AND user_id = $3`,
		category, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction category: %w", err)
	}
	if n == 0 {
		return nil, transaction.ErrTransactionNotFound
	}
	return r.GetByID(ctx, userID, id)
}

func (r *TransactionRepository) DistinctCategories(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM transactions
		WHERE user_id = $1 AND category IS NOT NULL
		ORDER BY category`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
