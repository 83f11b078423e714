package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finboard/internal/domain/institution"
)

// TokenCipher encrypts access tokens at rest.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type InstitutionRepository struct {
	db     *DB
	cipher TokenCipher
}

func NewInstitutionRepository(db *DB, cipher TokenCipher) *InstitutionRepository {
	return &InstitutionRepository{db: db, cipher: cipher}
}

const institutionColumns = `id, user_id, access_token, item_id, institution_id, institution_name, cursor, created_at, updated_at`

func (r *InstitutionRepository) scan(row interface{ Scan(...any) error }) (*institution.Institution, error) {
	var (
		inst      institution.Institution
		encrypted string
		cursor    sql.NullString
	)
	err := row.Scan(
		&inst.ID, &inst.UserID, &encrypted, &inst.ItemID, &inst.InstitutionID,
		&inst.InstitutionName, &cursor, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	token, err := r.cipher.Decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for %s: %w", inst.ID, err)
	}
	inst.AccessToken = token
	if cursor.Valid {
		inst.Cursor = &cursor.String
	}
	return &inst, nil
}

func (r *InstitutionRepository) Create(ctx context.Context, params institution.CreateParams) (*institution.Institution, error) {
	encrypted, err := r.cipher.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}

	query := `
		INSERT INTO plaid_items (id, user_id, access_token, item_id, institution_id, institution_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + institutionColumns

	inst, err := r.scan(r.db.QueryRowContext(ctx, query,
		params.ID, params.UserID, encrypted, params.ItemID, params.InstitutionID, params.InstitutionName,
	))
	if isUniqueViolation(err) {
		return nil, institution.ErrAlreadyLinked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create institution: %w", err)
	}
	return inst, nil
}

func (r *InstitutionRepository) GetByID(ctx context.Context, userID int64, id string) (*institution.Institution, error) {
	query := `SELECT ` + institutionColumns + ` FROM plaid_items WHERE id = $1 AND user_id = $2`

	inst, err := r.scan(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, institution.ErrInstitutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return inst, nil
}

func (r *InstitutionRepository) ListByUserID(ctx context.Context, userID int64) ([]*institution.Institution, error) {
	query := `
		SELECT ` + institutionColumns + `
		FROM plaid_items
		WHERE user_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	insts := []*institution.Institution{}
	for rows.Next() {
		inst, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan institution: %w", err)
		}
		insts = append(insts, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating institutions: %w", err)
	}
	return insts, nil
}

func (r *InstitutionRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM plaid_items ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with institutions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *InstitutionRepository) UpdateCursor(ctx context.Context, userID int64, id, cursor string) error {
	query := `UPDATE plaid_items SET cursor = $1, updated_at = now() WHERE id = $2 AND user_id = $3`

	res, err := r.db.ExecContext(ctx, query, cursor, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}
	if n == 0 {
		return institution.ErrInstitutionNotFound
	}
	return nil
}

func (r *InstitutionRepository) Delete(ctx context.Context, userID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plaid_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete institution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete institution: %w", err)
	}
	if n == 0 {
		return institution.ErrInstitutionNotFound
	}
	return nil
}
