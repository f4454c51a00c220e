// Package api exposes the storefront and the admin console over HTTP.
package api

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ExportProducts(ctx context.Context, w io.Writer) error
	PreWarmCache(ctx context.Context) (int, error)
}

type Carts interface {
	GetCart(ctx context.Context, sessionID string) (*repository.CartSnapshot, error)
	AddItem(ctx context.Context, sessionID string, req service.AddItemRequest) (*repository.CartSnapshot, error)
	AddBundle(ctx context.Context, sessionID string, req service.AddBundleRequest) (*repository.CartSnapshot, error)
	DecrementItem(ctx context.Context, sessionID string, req service.ItemKeyRequest) (*repository.CartSnapshot, error)
	RemoveItem(ctx context.Context, sessionID string, req service.ItemKeyRequest) (*repository.CartSnapshot, error)
	SetQuantity(ctx context.Context, sessionID string, req service.SetQuantityRequest) (*repository.CartSnapshot, error)
	Clear(ctx context.Context, sessionID string) (*repository.CartSnapshot, error)
}

type Orders interface {
	Checkout(ctx context.Context, sessionID, idempotentKey string, customer entity.Customer) (*entity.Order, error)
	ConfirmPayment(ctx context.Context, number int64) (*entity.Order, error)
	GetOrder(ctx context.Context, number int64) (*entity.Order, error)
	ListOrders(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error)
	UpdateStatus(ctx context.Context, number int64, next entity.OrderStatus) (*entity.Order, error)
}

type Auth interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *service.AdminClaims) error
	Authorize(ctx context.Context, claims *service.AdminClaims) error
	Secret() []byte
}
