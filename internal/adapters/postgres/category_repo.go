package postgres

import (
	"context"

	"github.com/localelore/localelore/internal/core/domain"
)

// CategoryRepo implements ports.CategoryRepository with pgx.
type CategoryRepo struct {
	db *DB
}

// NewCategoryRepo creates a new CategoryRepo.
func NewCategoryRepo(db *DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, COALESCE(icon, ''), created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Icon, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
