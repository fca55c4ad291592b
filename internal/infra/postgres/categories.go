package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

// CreateCategory inserts a category; (user, name, type) duplicates surface
// as a conflict.
func (s *Store) CreateCategory(ctx context.Context, c *domain.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.Name, c.Type, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "category already exists"}
		}
		return err
	}
	return nil
}

// GetCategory fetches one category scoped to the owning user.
func (s *Store) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	var c domain.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, created_at
		FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "category", ID: categoryID}
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns the user's categories ordered by name.
func (s *Store) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, created_at
		FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory renames a category.
func (s *Store) UpdateCategory(ctx context.Context, c *domain.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, type = $2
		WHERE id = $3 AND user_id = $4`,
		c.Name, c.Type, c.ID, c.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "category already exists"}
		}
		return err
	}
	return requireRow(res, "category", c.ID)
}

// DeleteCategory removes a category. Transactions keep their category_id
// reference, so deletion fails while in use.
func (s *Store) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &domain.ErrConflict{Message: "category is in use and cannot be deleted"}
		}
		return err
	}
	return requireRow(res, "category", categoryID)
}
