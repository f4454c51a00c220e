package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/entity"
	"storefront-service/internal/sharding"
)

var orderRowColumns = []string{"id", "number", "reference", "session_id", "status", "customer_name", "customer_email",
	"customer_phone", "address_line1", "address_line2", "city", "region", "country", "postcode", "currency",
	"total_quantity", "gross_total", "discount_total", "total", "payment_ref", "created_at", "updated_at"}

func orderRow(rows *sqlmock.Rows, id, number int64, status entity.OrderStatus, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, number, "ref-"+string(status), "sess", string(status), "Dana", "dana@example.com", "+971500000000",
		"1 Palm St", "", "Dubai", "", "AE", "", "AED", int64(3), int64(1500), int64(150), int64(1350), "", created, created)
}

func newShardedRepo(t *testing.T, n int) (*OrderRepository, []sqlmock.Sqlmock) {
	t.Helper()
	dbs := make([]*sql.DB, n)
	mocks := make([]sqlmock.Sqlmock, n)
	for i := range dbs {
		dbs[i], mocks[i] = newMockDB(t)
	}
	return NewOrderRepository(dbs, sharding.NewShardRouter(n)), mocks
}

func TestOrderRepository_CreateOrder_UsesShard(t *testing.T) {
	repo, mocks := newShardedRepo(t, 2)
	now := time.Now().UTC()

	order := &entity.Order{
		Number:    1001,
		Reference: "ref-1",
		SessionID: "sess",
		Status:    entity.OrderAwaitingPayment,
		Currency:  "AED",
		Items: []entity.OrderItem{
			{ProductID: 7, Name: "Mug A", Attributes: []string{"Gift Box"}, UnitPrice: 500, EffectivePrice: 450, Quantity: 3},
			{ProductID: 3, Name: "Frame", UnitPrice: 1000, EffectivePrice: 850, Quantity: 1},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	shard := mocks[1]
	shard.ExpectBegin()
	shard.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(55, 1))
	shard.ExpectExec(`INSERT INTO order_items \(.+\) VALUES \(\?, \?, \?, \?, \?, \?, \?\), \(\?, \?, \?, \?, \?, \?, \?\)`).
		WithArgs(int64(55), int64(7), "Mug A", `["Gift Box"]`, int64(500), int64(450), 3,
			int64(55), int64(3), "Frame", `null`, int64(1000), int64(850), 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	shard.ExpectCommit()

	created, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(55), created.ID)
}

func TestOrderRepository_CreateOrder_RollsBack(t *testing.T) {
	repo, mocks := newShardedRepo(t, 1)

	mocks[0].ExpectBegin()
	mocks[0].ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(5, 1))
	mocks[0].ExpectExec(`INSERT INTO order_items`).WillReturnError(sql.ErrConnDone)
	mocks[0].ExpectRollback()

	_, err := repo.CreateOrder(context.Background(), &entity.Order{
		Number: 2,
		Items:  []entity.OrderItem{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestOrderRepository_GetOrderByNumber(t *testing.T) {
	repo, mocks := newShardedRepo(t, 3)
	now := time.Now().UTC()

	shard := mocks[1000%3]
	shard.ExpectQuery(`SELECT (.+) FROM orders WHERE number = \?`).WithArgs(int64(1000)).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), 9, 1000, entity.OrderPaid, now))
	shard.ExpectQuery(`SELECT (.+) FROM order_items WHERE order_id = \?`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "attributes", "unit_price", "effective_price", "quantity"}).
			AddRow(int64(7), "Mug A", []byte(`["Gift Box"]`), int64(500), int64(450), int64(3)))

	order, err := repo.GetOrderByNumber(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPaid, order.Status)
	assert.Equal(t, "AE", order.Customer.Country)
	require.Len(t, order.Items, 1)
	assert.Equal(t, []string{"Gift Box"}, order.Items[0].Attributes)
}

func TestOrderRepository_GetOrderByNumber_NotFound(t *testing.T) {
	repo, mocks := newShardedRepo(t, 1)
	mocks[0].ExpectQuery(`SELECT (.+) FROM orders`).WillReturnRows(sqlmock.NewRows(orderRowColumns))

	_, err := repo.GetOrderByNumber(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderRepository_UpdateOrderStatus(t *testing.T) {
	repo, mocks := newShardedRepo(t, 2)
	mocks[0].ExpectExec(`UPDATE orders SET status = \?`).WithArgs("paid", int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mocks[1].ExpectExec(`UPDATE orders SET status = \?`).WithArgs("cancelled", int64(11)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateOrderStatus(context.Background(), 10, entity.OrderPaid))
	assert.ErrorIs(t, repo.UpdateOrderStatus(context.Background(), 11, entity.OrderCancelled), ErrNotFound)
}

func TestOrderRepository_ListOrders_MergesShards(t *testing.T) {
	repo, mocks := newShardedRepo(t, 2)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mocks[0].ExpectQuery(`SELECT (.+) FROM orders WHERE status = \? ORDER BY created_at DESC LIMIT \?`).
		WithArgs("paid", 2).
		WillReturnRows(orderRow(orderRow(sqlmock.NewRows(orderRowColumns), 1, 10, entity.OrderPaid, base.Add(3*time.Hour)), 2, 12, entity.OrderPaid, base))
	mocks[1].ExpectQuery(`SELECT (.+) FROM orders WHERE status = \? ORDER BY created_at DESC LIMIT \?`).
		WithArgs("paid", 2).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), 1, 11, entity.OrderPaid, base.Add(time.Hour)))

	orders, err := repo.ListOrders(context.Background(), entity.OrderFilter{Status: entity.OrderPaid, Limit: 2})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(10), orders[0].Number)
	assert.Equal(t, int64(11), orders[1].Number)
}
