package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"

	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
	"storefront-service/internal/repository"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[int64]*entity.Product
	nextID   int64
	reads    int
}

func newFakeProductRepo(products ...*entity.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[int64]*entity.Product{}, nextID: 100}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) GetProductByID(_ context.Context, id int64) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetProducts(_ context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Product{}
	for id := int64(0); id <= r.nextID; id++ {
		p, ok := r.products[id]
		if !ok || (filter.ActiveOnly && !p.Active) {
			continue
		}
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeProductRepo) CreateProduct(_ context.Context, p *entity.Product) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.products[p.ID] = &cp
	return p, nil
}

func (r *fakeProductRepo) UpdateProduct(_ context.Context, p *entity.Product) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	r.products[p.ID] = &cp
	return p, nil
}

func (r *fakeProductRepo) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) AdjustStock(_ context.Context, id int64, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return repository.ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

type fakeCategoryRepo struct {
	categories map[int64]*entity.Category
	nextID     int64
}

func newFakeCategoryRepo(categories ...*entity.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: map[int64]*entity.Category{}, nextID: 10}
	for _, c := range categories {
		r.categories[c.ID] = c
	}
	return r
}

func (r *fakeCategoryRepo) GetCategoryByID(_ context.Context, id int64) (*entity.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r *fakeCategoryRepo) GetCategories(_ context.Context) ([]*entity.Category, error) {
	out := []*entity.Category{}
	for id := int64(0); id <= r.nextID; id++ {
		if c, ok := r.categories[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) CreateCategory(_ context.Context, c *entity.Category) (*entity.Category, error) {
	r.nextID++
	c.ID = r.nextID
	r.categories[c.ID] = c
	return c, nil
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, c *entity.Category) (*entity.Category, error) {
	if _, ok := r.categories[c.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	r.categories[c.ID] = c
	return c, nil
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[int64]*entity.Order
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*entity.Order{}}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, o *entity.Order) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	o.ID = int64(len(r.orders) + 1)
	cp := *o
	r.orders[o.Number] = &cp
	return o, nil
}

func (r *fakeOrderRepo) GetOrderByNumber(_ context.Context, number int64) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, number int64, status entity.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) SetPaymentRef(_ context.Context, number int64, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return repository.ErrNotFound
	}
	o.PaymentRef = ref
	return nil
}

func (r *fakeOrderRepo) ListOrders(_ context.Context, filter entity.OrderFilter) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.Order{}
	for _, o := range r.orders {
		if filter.Status == "" || o.Status == filter.Status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

// only returns a single order, for tests that need it by status
func (r *fakeOrderRepo) only(t *testing.T) *entity.Order {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.orders) != 1 {
		t.Fatalf("expected one order, have %d", len(r.orders))
	}
	for _, o := range r.orders {
		return o
	}
	return nil
}

type fakeGateway struct {
	createErr error
	status    payment.Status
	checkErr  error
	requests  []payment.Request
}

func (g *fakeGateway) CreatePayment(_ context.Context, req payment.Request) (*payment.Session, error) {
	g.requests = append(g.requests, req)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &payment.Session{GatewayRef: "ref-" + req.Reference, URL: "https://pay.example/" + req.Reference}, nil
}

func (g *fakeGateway) CheckPayment(_ context.Context, _ string) (payment.Status, error) {
	if g.checkErr != nil {
		return "", g.checkErr
	}
	return g.status, nil
}

type publishedEvent struct {
	event  string
	number int64
	status entity.OrderStatus
}

type fakePublisher struct {
	mu            sync.Mutex
	events        []publishedEvent
	notifications []*entity.Notification
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, event string, order *entity.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event, order.Number, order.Status})
	return nil
}

func (p *fakePublisher) PublishNotification(_ context.Context, n *entity.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
	return nil
}

func (p *fakePublisher) eventNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.event)
	}
	return names
}

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

type fakeAdminRepo struct {
	admins map[string]*entity.Admin
}

func (r *fakeAdminRepo) GetAdminByEmail(_ context.Context, email string) (*entity.Admin, error) {
	a, ok := r.admins[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *fakeAdminRepo) CreateAdmin(_ context.Context, a *entity.Admin) (*entity.Admin, error) {
	if r.admins == nil {
		r.admins = map[string]*entity.Admin{}
	}
	a.ID = int64(len(r.admins) + 1)
	a.CreatedAt = time.Now()
	r.admins[a.Email] = a
	return a, nil
}
