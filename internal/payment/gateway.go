// Package payment talks to the hosted checkout provider.
package payment

import (
	"context"
	"errors"
)

var ErrGateway = errors.New("payment gateway error")

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type Address struct {
	Line1    string
	Line2    string
	City     string
	Region   string
	Country  string
	Postcode string
}

type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address Address
}

// Request opens a hosted payment page. Amount is in minor currency units.
type Request struct {
	Reference   string
	Amount      int64
	Currency    string
	Description string
	Customer    Customer
}

// Session is an opened payment: where to send the shopper and the
// provider's handle for later status checks.
type Session struct {
	GatewayRef string
	URL        string
}

type Gateway interface {
	CreatePayment(ctx context.Context, req Request) (*Session, error)
	CheckPayment(ctx context.Context, gatewayRef string) (Status, error)
}
