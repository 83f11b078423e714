package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finboard/internal/domain/category"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, user_id, name, color, created_at`

func scanCategory(row interface{ Scan(...any) error }) (*category.Category, error) {
	var c category.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, params category.CreateParams) (*category.Category, error) {
	query := `
		INSERT INTO custom_categories (id, user_id, name, color)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRowContext(ctx, query, params.ID, params.UserID, params.Name, params.Color))
	if isUniqueViolation(err) {
		return nil, category.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID int64, id string) (*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM custom_categories WHERE id = $1 AND user_id = $2`

	c, err := scanCategory(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) ListByUserID(ctx context.Context, userID int64) ([]*category.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM custom_categories WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*category.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) NameTaken(ctx context.Context, userID int64, name, excludeID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM custom_categories
			WHERE user_id = $1 AND name = $2 AND id::text <> $3
		)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, userID, name, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return taken, nil
}

func (r *CategoryRepository) Update(ctx context.Context, userID int64, id string, params category.UpdateParams) (*category.Category, error) {
	query := `
		UPDATE custom_categories
		SET name = COALESCE($1, name),
		    color = COALESCE($2, color)
		WHERE id = $3 AND user_id = $4
		RETURNING ` + categoryColumns

	c, err := scanCategory(r.db.QueryRowContext(ctx, query, params.Name, params.Color, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, category.ErrCategoryNotFound
	}
	if isUniqueViolation(err) {
		return nil, category.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, userID int64, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if n == 0 {
		return category.ErrCategoryNotFound
	}
	return nil
}
