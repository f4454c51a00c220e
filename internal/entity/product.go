package entity

import "time"

type Product struct {
	ID                 int64     `json:"id"`
	CategoryID         int64     `json:"category_id"`
	Name               string    `json:"name" validate:"required,max=255"`
	Description        string    `json:"description"`
	Price              int64     `json:"price" validate:"gte=0"` // minor currency units
	DiscountPercentage float64   `json:"discount_percentage" validate:"gte=0,lte=100"`
	DiscountAmount     int64     `json:"discount_amount" validate:"gte=0"`
	Stock              int       `json:"stock" validate:"gte=0"`
	ImageURL           string    `json:"image_url"`
	Options            []string  `json:"options"` // variant selectors a shopper may pick
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasOption reports whether opt is one of the product's variant selectors.
func (p *Product) HasOption(opt string) bool {
	for _, o := range p.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	CategoryID int64
	ActiveOnly bool
}

/*
Schema MySQL for products table:
CREATE TABLE products (
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
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);
*/
