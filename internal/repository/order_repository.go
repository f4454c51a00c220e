package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

const orderColumns = `id, number, reference, session_id, status, customer_name, customer_email, customer_phone, address_line1, address_line2, city, region, country, postcode, currency, total_quantity, gross_total, discount_total, total, payment_ref, created_at, updated_at`

// OrderRepository spreads orders over several databases by order number.
type OrderRepository struct {
	dbShards []*sql.DB
	router   *sharding.ShardRouter
}

func NewOrderRepository(dbShards []*sql.DB, router *sharding.ShardRouter) *OrderRepository {
	return &OrderRepository{dbShards, router}
}

func (r *OrderRepository) shard(number int64) *sql.DB {
	return r.dbShards[r.router.GetShard(number)]
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	order := &entity.Order{}
	c := &order.Customer
	err := row.Scan(&order.ID, &order.Number, &order.Reference, &order.SessionID, &order.Status,
		&c.Name, &c.Email, &c.Phone, &c.AddressLine1, &c.AddressLine2, &c.City, &c.Region, &c.Country, &c.Postcode,
		&order.Currency, &order.TotalQuantity, &order.GrossTotal, &order.DiscountTotal, &order.Total,
		&order.PaymentRef, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) GetOrderByNumber(ctx context.Context, number int64) (*entity.Order, error) {
	db := r.shard(number)

	order, err := scanOrder(db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	itemQuery := `SELECT product_id, name, attributes, unit_price, effective_price, quantity FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := db.QueryContext(ctx, itemQuery, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order.Items = []entity.OrderItem{}
	for rows.Next() {
		var (
			item  entity.OrderItem
			attrs []byte
		)
		if err := rows.Scan(&item.ProductID, &item.Name, &attrs, &item.UnitPrice, &item.EffectivePrice, &item.Quantity); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &item.Attributes); err != nil {
				return nil, err
			}
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	db := r.shard(order.Number)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	c := order.Customer
	orderQuery := `INSERT INTO orders (number, reference, session_id, status, customer_name, customer_email, customer_phone, address_line1, address_line2, city, region, country, postcode, currency, total_quantity, gross_total, discount_total, total, payment_ref, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, order.Number, order.Reference, order.SessionID, order.Status,
		c.Name, c.Email, c.Phone, c.AddressLine1, c.AddressLine2, c.City, c.Region, c.Country, c.Postcode,
		order.Currency, order.TotalQuantity, order.GrossTotal, order.DiscountTotal, order.Total,
		order.PaymentRef, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if len(order.Items) > 0 {
		// Insert items with one batched statement
		placeholders := make([]string, 0, len(order.Items))
		values := make([]any, 0, len(order.Items)*7)
		for _, item := range order.Items {
			attrs, err := json.Marshal(item.Attributes)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?)")
			values = append(values, orderID, item.ProductID, item.Name, string(attrs), item.UnitPrice, item.EffectivePrice, item.Quantity)
		}
		itemQuery := `INSERT INTO order_items (order_id, product_id, name, attributes, unit_price, effective_price, quantity) VALUES ` + strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, itemQuery, values...); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.ID = orderID
	return order, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, number int64, status entity.OrderStatus) error {
	res, err := r.shard(number).ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE number = ?`, status, number)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *OrderRepository) SetPaymentRef(ctx context.Context, number int64, ref string) error {
	res, err := r.shard(number).ExecContext(ctx, `UPDATE orders SET payment_ref = ?, updated_at = CURRENT_TIMESTAMP WHERE number = ?`, ref, number)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListOrders queries every shard concurrently and merges the results newest
// first. Items are not loaded.
func (r *OrderRepository) ListOrders(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	results := make([][]*entity.Order, len(r.dbShards))
	g, gctx := errgroup.WithContext(ctx)
	for i, db := range r.dbShards {
		g.Go(func() error {
			rows, err := db.QueryContext(gctx, query, args...)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				order, err := scanOrder(rows)
				if err != nil {
					return err
				}
				results[i] = append(results[i], order)
			}
			return rows.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	orders := []*entity.Order{}
	for _, shardOrders := range results {
		orders = append(orders, shardOrders...)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
