package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

var retryDelay = time.Second

var catalogTables = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		slug VARCHAR(128) NOT NULL UNIQUE,
		description TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		category_id BIGINT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		price BIGINT NOT NULL,
		discount_percentage DOUBLE NOT NULL DEFAULT 0,
		discount_amount BIGINT NOT NULL DEFAULT 0,
		stock INT NOT NULL DEFAULT 0,
		image_url VARCHAR(512) NOT NULL DEFAULT '',
		options JSON NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_products_category (category_id),
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL,
		CHECK (stock >= 0)
	);`,
	`CREATE TABLE IF NOT EXISTS admins (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(128) NOT NULL,
		role VARCHAR(32) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

var orderTables = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		number BIGINT NOT NULL UNIQUE,
		reference VARCHAR(64) NOT NULL UNIQUE,
		session_id VARCHAR(64) NOT NULL,
		status VARCHAR(20) NOT NULL,
		customer_name VARCHAR(128) NOT NULL,
		customer_email VARCHAR(255) NOT NULL,
		customer_phone VARCHAR(32) NOT NULL,
		address_line1 VARCHAR(255) NOT NULL,
		address_line2 VARCHAR(255) NOT NULL DEFAULT '',
		city VARCHAR(128) NOT NULL,
		region VARCHAR(128) NOT NULL DEFAULT '',
		country CHAR(2) NOT NULL,
		postcode VARCHAR(32) NOT NULL DEFAULT '',
		currency CHAR(3) NOT NULL,
		total_quantity INT NOT NULL,
		gross_total BIGINT NOT NULL,
		discount_total BIGINT NOT NULL,
		total BIGINT NOT NULL,
		payment_ref VARCHAR(128) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_orders_status_created (status, created_at)
	);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		attributes JSON NULL,
		unit_price BIGINT NOT NULL,
		effective_price BIGINT NOT NULL,
		quantity INT NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	);`,
}

// AutoMigrateCatalog creates the catalog and admin tables if they do not
// exist.
func AutoMigrateCatalog(retries int, db *sql.DB) error {
	for _, query := range catalogTables {
		if err := execWithRetry(db, retries, query); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
	}
	return nil
}

// AutoMigrateOrders creates the orders and order_items tables on every
// shard.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	for i, db := range dbs {
		for _, query := range orderTables {
			if err := execWithRetry(db, retries, query); err != nil {
				return fmt.Errorf("migrate order shard %d: %w", i, err)
			}
		}
	}
	return nil
}

func execWithRetry(db *sql.DB, retries int, query string) error {
	_, err := db.Exec(query)
	for i := 0; err != nil && i < retries; i++ {
		time.Sleep(retryDelay)
		_, err = db.Exec(query)
	}
	return err
}
