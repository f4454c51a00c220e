package repository

import (
	"context"
	"database/sql"
	"errors"

	"storefront-service/internal/entity"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db}
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id int64) (*entity.Category, error) {
	category := &entity.Category{}
	query := `SELECT id, name, slug, description FROM categories WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.Slug, &category.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) GetCategories(ctx context.Context) ([]*entity.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*entity.Category{}
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.Description); err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	query := `INSERT INTO categories (name, slug, description) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, category.Name, category.Slug, category.Description)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	category.ID = id
	return category, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	query := `UPDATE categories SET name = ?, slug = ?, description = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, category.Name, category.Slug, category.Description, category.ID)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
