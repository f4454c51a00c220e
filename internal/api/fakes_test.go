package api

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[int64]*entity.Product
	warmed   int
}

func newFakeCatalog(products ...*entity.Product) *fakeCatalog {
	c := &fakeCatalog{products: map[int64]*entity.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, service.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) ListProducts(_ context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*entity.Product{}
	for _, p := range f.products {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, p *entity.Product) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = int64(len(f.products) + 100)
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, p *entity.Product) (*entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return nil, service.ErrProductNotFound
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return service.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]*entity.Category, error) {
	return []*entity.Category{{ID: 1, Name: "Mugs", Slug: "mugs"}}, nil
}

func (f *fakeCatalog) CreateCategory(_ context.Context, c *entity.Category) (*entity.Category, error) {
	c.ID = 2
	return c, nil
}

func (f *fakeCatalog) UpdateCategory(_ context.Context, c *entity.Category) (*entity.Category, error) {
	if c.ID != 1 {
		return nil, service.ErrCategoryNotFound
	}
	return c, nil
}

func (f *fakeCatalog) DeleteCategory(_ context.Context, id int64) error {
	if id != 1 {
		return service.ErrCategoryNotFound
	}
	return nil
}

func (f *fakeCatalog) ExportProducts(_ context.Context, w io.Writer) error {
	_, err := w.Write([]byte("PK-fake-workbook"))
	return err
}

func (f *fakeCatalog) PreWarmCache(context.Context) (int, error) {
	f.warmed++
	return len(f.products), nil
}

type fakeOrders struct {
	mu          sync.Mutex
	orders      map[int64]*entity.Order
	checkoutErr error
	lastKey     string
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[int64]*entity.Order{}}
}

func (f *fakeOrders) Checkout(_ context.Context, sessionID, key string, customer entity.Customer) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastKey = key
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	order := &entity.Order{
		Number:     int64(1000 + len(f.orders)),
		SessionID:  sessionID,
		Status:     entity.OrderAwaitingPayment,
		Customer:   customer,
		PaymentURL: "https://pay.example/1",
	}
	f.orders[order.Number] = order
	return order, nil
}

func (f *fakeOrders) ConfirmPayment(_ context.Context, number int64) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[number]
	if !ok {
		return nil, service.ErrOrderNotFound
	}
	o.Status = entity.OrderPaid
	return o, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, number int64) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[number]
	if !ok {
		return nil, service.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, filter entity.OrderFilter) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*entity.Order{}
	for _, o := range f.orders {
		if filter.Status == "" || o.Status == filter.Status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, number int64, next entity.OrderStatus) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[number]
	if !ok {
		return nil, service.ErrOrderNotFound
	}
	if !o.Status.CanTransition(next) {
		return nil, service.ErrInvalidTransition
	}
	o.Status = next
	return o, nil
}

var testSecret = []byte("api-test-secret")

type fakeAuth struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{revoked: map[string]bool{}}
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	if email != "owner@example.com" || password != "correct horse" {
		return "", service.ErrInvalidCredentials
	}
	return signToken(entity.RoleAdmin, "jti-login", testSecret), nil
}

func (f *fakeAuth) Logout(_ context.Context, claims *service.AdminClaims) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[claims.ID] = true
	return nil
}

func (f *fakeAuth) Authorize(_ context.Context, claims *service.AdminClaims) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if claims.Role != entity.RoleAdmin {
		return service.ErrForbidden
	}
	if f.revoked[claims.ID] {
		return service.ErrSessionRevoked
	}
	return nil
}

func (f *fakeAuth) Secret() []byte {
	return testSecret
}

func signToken(role, id string, secret []byte) string {
	claims := &service.AdminClaims{
		Name:  "Owner",
		Email: "owner@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.Itoa(1),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	t, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		panic(err)
	}
	return t
}
