package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidAttribute   = errors.New("invalid item attribute")
	ErrInvalidBundle      = errors.New("invalid bundle")
	ErrCartBusy           = errors.New("cart is being updated, try again")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOutOfStock         = errors.New("product out of stock")
	ErrDuplicateRequest   = errors.New("idempotent key already exists")
	ErrPaymentUnavailable = errors.New("payment service unavailable, please try again")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionRevoked     = errors.New("session expired or revoked")
)

type ProductRepository interface {
	GetProductByID(ctx context.Context, id int64) (*entity.Product, error)
	GetProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int) error
}

type CategoryRepository interface {
	GetCategoryByID(ctx context.Context, id int64) (*entity.Category, error)
	GetCategories(ctx context.Context) ([]*entity.Category, error)
	CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type CartRepository interface {
	Get(ctx context.Context, sessionID string) (*repository.CartSnapshot, error)
	Update(ctx context.Context, sessionID string, fn func(*cart.Cart) error) (*repository.CartSnapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetOrderByNumber(ctx context.Context, number int64) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, number int64, status entity.OrderStatus) error
	SetPaymentRef(ctx context.Context, number int64, ref string) error
	ListOrders(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error)
}

type AdminRepository interface {
	GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error)
	CreateAdmin(ctx context.Context, admin *entity.Admin) (*entity.Admin, error)
}

type AdminSessionRepository interface {
	Create(ctx context.Context, tokenID string, adminID int64, ttl time.Duration) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Delete(ctx context.Context, tokenID string) error
}

type IdempotencyRepository interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// EventPublisher fans order lifecycle changes out to other services.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event string, order *entity.Order) error
	PublishNotification(ctx context.Context, notification *entity.Notification) error
}
