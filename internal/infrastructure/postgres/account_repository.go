package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finboard/internal/domain/account"
)

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	a.id, a.plaid_item_id, a.user_id, a.account_id, a.name, a.official_name,
	a.type, a.subtype, a.mask, a.current_balance, a.available_balance,
	a.iso_currency_code, pi.institution_name, a.created_at, a.updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*account.Account, error) {
	var a account.Account
	err := row.Scan(
		&a.ID, &a.InstitutionID, &a.UserID, &a.AccountID, &a.Name, &a.OfficialName,
		&a.Type, &a.Subtype, &a.Mask, &a.CurrentBalance, &a.AvailableBalance,
		&a.IsoCurrencyCode, &a.InstitutionName, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert keeps the local id of an existing (institution, external id) pair.
func (r *AccountRepository) Upsert(ctx context.Context, params account.UpsertParams) (*account.Account, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	query := `
		WITH upserted AS (
			INSERT INTO accounts (
				id, plaid_item_id, user_id, account_id, name, official_name, type,
				subtype, mask, current_balance, available_balance, iso_currency_code
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (plaid_item_id, account_id) DO UPDATE SET
				name = EXCLUDED.name,
				official_name = EXCLUDED.official_name,
				type = EXCLUDED.type,
				subtype = EXCLUDED.subtype,
				mask = EXCLUDED.mask,
				current_balance = EXCLUDED.current_balance,
				available_balance = EXCLUDED.available_balance,
				iso_currency_code = EXCLUDED.iso_currency_code,
				updated_at = now()
			RETURNING *
		)
		SELECT ` + accountColumns + `
		FROM upserted a
		JOIN plaid_items pi ON pi.id = a.plaid_item_id`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query,
		params.ID, params.InstitutionID, params.UserID, params.AccountID, params.Name,
		params.OfficialName, params.Type, params.Subtype, params.Mask,
		params.CurrentBalance, params.AvailableBalance, params.IsoCurrencyCode,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, userID int64, id string) (*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		JOIN plaid_items pi ON pi.id = a.plaid_item_id
		WHERE a.id = $1 AND a.user_id = $2`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		JOIN plaid_items pi ON pi.id = a.plaid_item_id
		WHERE a.user_id = $1
		ORDER BY pi.institution_name, a.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*account.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) ExternalIDMap(ctx context.Context, institutionID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_id, id FROM accounts WHERE plaid_item_id = $1`, institutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account map: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var external, local string
		if err := rows.Scan(&external, &local); err != nil {
			return nil, fmt.Errorf("failed to scan account map: %w", err)
		}
		m[external] = local
	}
	return m, rows.Err()
}

func (r *AccountRepository) UpdateBalances(ctx context.Context, userID int64, update account.BalanceUpdate) (bool, error) {
	query := `
		UPDATE accounts
		SET current_balance = $1, available_balance = $2, updated_at = now()
		WHERE plaid_item_id = $3 AND account_id = $4 AND user_id = $5`

	res, err := r.db.ExecContext(ctx, query,
		update.Current, update.Available, update.InstitutionID, update.AccountID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update balances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update balances: %w", err)
	}
	return n > 0, nil
}
