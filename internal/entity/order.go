package entity

import "time"

type OrderStatus string

const (
	OrderAwaitingPayment OrderStatus = "awaiting_payment"
	OrderPaid            OrderStatus = "paid"
	OrderFailed          OrderStatus = "failed"
	OrderCancelled       OrderStatus = "cancelled"
	OrderShipped         OrderStatus = "shipped"
	OrderDelivered       OrderStatus = "delivered"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderAwaitingPayment: {OrderPaid, OrderFailed, OrderCancelled},
	OrderFailed:          {OrderAwaitingPayment, OrderCancelled},
	OrderPaid:            {OrderShipped, OrderCancelled},
	OrderShipped:         {OrderDelivered},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Final reports whether the payment outcome of an order is settled.
func (s OrderStatus) Final() bool {
	return s != OrderAwaitingPayment && s != OrderFailed
}

type Customer struct {
	Name         string `json:"name" validate:"required,max=128"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone" validate:"required,max=32"`
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=128"`
	Region       string `json:"region" validate:"max=128"`
	Country      string `json:"country" validate:"required,len=2"`
	Postcode     string `json:"postcode" validate:"max=32"`
}

type Order struct {
	ID            int64       `json:"id"`
	Number        int64       `json:"number"`
	Reference     string      `json:"reference"`
	SessionID     string      `json:"-"`
	Status        OrderStatus `json:"status"`
	Customer      Customer    `json:"customer"`
	Currency      string      `json:"currency"`
	Items         []OrderItem `json:"items"`
	TotalQuantity int         `json:"total_quantity"`
	GrossTotal    int64       `json:"gross_total"`
	DiscountTotal int64       `json:"discount_total"`
	Total         int64       `json:"total"`
	PaymentRef    string      `json:"payment_ref,omitempty"`
	PaymentURL    string      `json:"payment_url,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ProductID      int64    `json:"product_id"`
	Name           string   `json:"name"`
	Attributes     []string `json:"attributes"`
	UnitPrice      int64    `json:"unit_price"`
	EffectivePrice int64    `json:"effective_price"`
	Quantity       int      `json:"quantity"`
}

// OrderFilter narrows an admin order listing.
type OrderFilter struct {
	Status OrderStatus
	Limit  int
}

/*
Mysql Table

CREATE TABLE orders (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	number BIGINT NOT NULL UNIQUE,
	...
);

CREATE TABLE order_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id),
	...
);

See migrations for the full definitions.
*/
