package migrations

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	retryDelay = 0
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestAutoMigrateCatalog(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS categories").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS products").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS admins").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, AutoMigrateCatalog(1, db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoMigrateOrders_EveryShard(t *testing.T) {
	db1, mock1 := newMock(t)
	db2, mock2 := newMock(t)
	for _, mock := range []sqlmock.Sqlmock{mock1, mock2} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS orders").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS order_items").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, AutoMigrateOrders(1, db1, db2))
	assert.NoError(t, mock1.ExpectationsWereMet())
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestAutoMigrate_RetriesThenFails(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("server has gone away")
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS orders").WillReturnError(boom)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS orders").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS order_items").WillReturnError(boom)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS order_items").WillReturnError(boom)

	err := AutoMigrateOrders(1, db)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "order shard 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}
