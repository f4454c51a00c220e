package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"storefront-service/internal/entity"
)

const productColumns = `id, category_id, name, description, price, discount_percentage, discount_amount, stock, image_url, options, active, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var (
		product    entity.Product
		categoryID sql.NullInt64
		options    []byte
	)
	err := row.Scan(&product.ID, &categoryID, &product.Name, &product.Description, &product.Price,
		&product.DiscountPercentage, &product.DiscountAmount, &product.Stock, &product.ImageURL,
		&options, &product.Active, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	product.CategoryID = categoryID.Int64
	if len(options) > 0 {
		if err := json.Unmarshal(options, &product.Options); err != nil {
			return nil, err
		}
	}
	return &product, nil
}

func encodeOptions(options []string) (any, error) {
	if len(options) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) GetProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.ActiveOnly {
		where = append(where, "active = TRUE")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []*entity.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	options, err := encodeOptions(product.Options)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO products (category_id, name, description, price, discount_percentage, discount_amount, stock, image_url, options, active) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, nullableID(product.CategoryID), product.Name, product.Description,
		product.Price, product.DiscountPercentage, product.DiscountAmount, product.Stock, product.ImageURL, options, product.Active)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	product.ID = id
	return product, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	options, err := encodeOptions(product.Options)
	if err != nil {
		return nil, err
	}

	query := `UPDATE products SET category_id = ?, name = ?, description = ?, price = ?, discount_percentage = ?, discount_amount = ?, stock = ?, image_url = ?, options = ?, active = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, nullableID(product.CategoryID), product.Name, product.Description,
		product.Price, product.DiscountPercentage, product.DiscountAmount, product.Stock, product.ImageURL, options, product.Active, product.ID)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AdjustStock adds delta to the product's stock in one statement, refusing
// to take it below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	query := `UPDATE products SET stock = stock + ? WHERE id = ? AND stock + ? >= 0`
	res, err := r.db.ExecContext(ctx, query, delta, id, delta)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// distinguish a missing product from a short one
	var stock int
	err = r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, id).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInsufficientStock
}

// requireRow turns a write that matched nothing into ErrNotFound. DSNs must set
// clientFoundRows=true so an UPDATE that changes no values still counts.
func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
