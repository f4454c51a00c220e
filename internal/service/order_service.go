package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
	"storefront-service/internal/payment"
	"storefront-service/internal/repository"
)

// Order event names published on the order topic.
const (
	EventOrderCreated   = "created"
	EventOrderPaid      = "paid"
	EventOrderCancelled = "cancelled" // a paid order was cancelled, stock goes back
	EventOrderVoided    = "voided"    // an unpaid order was cancelled
	EventOrderFailed    = "failed"
	EventOrderShipped   = "shipped"
	EventOrderDelivered = "delivered"
	EventOrderReopened  = "reopened"
)

const idempotencyTTL = 24 * time.Hour

// StockChecker reports the live stock of a product.
type StockChecker interface {
	GetProductStock(ctx context.Context, id int64) (int, error)
}

type OrderConfig struct {
	Currency  string
	StoreName string
}

// OrderService turns session carts into orders and follows them through
// payment and fulfilment.
type OrderService struct {
	orderRepo   OrderRepository
	cartRepo    CartRepository
	stock       StockChecker
	gateway     payment.Gateway
	publisher   EventPublisher
	idempotency IdempotencyRepository
	cfg         OrderConfig
	now         func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(orderRepo OrderRepository, cartRepo CartRepository, stock StockChecker, gateway payment.Gateway,
	publisher EventPublisher, idempotency IdempotencyRepository, cfg OrderConfig) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		stock:       stock,
		gateway:     gateway,
		publisher:   publisher,
		idempotency: idempotency,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Checkout creates an order from the session cart and opens a payment
// session for it. The returned order carries the hosted payment URL.
func (s *OrderService) Checkout(ctx context.Context, sessionID, idempotentKey string, customer entity.Customer) (*entity.Order, error) {
	if idempotentKey != "" {
		ok, err := s.idempotency.Reserve(ctx, idempotentKey, idempotencyTTL)
		if err != nil {
			logger.Error().Err(err).Msg("Error reserving idempotent key")
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}
	// The key is released on any failure that leaves no payable order, so
	// the shopper can retry with it.
	release := func() {
		if idempotentKey == "" {
			return
		}
		if err := s.idempotency.Release(ctx, idempotentKey); err != nil {
			logger.Error().Err(err).Msg("Error releasing idempotent key")
		}
	}

	snap, err := s.cartRepo.Get(ctx, sessionID)
	if err != nil {
		release()
		logger.Error().Err(err).Msgf("Error getting cart for session %s", sessionID)
		return nil, err
	}
	if snap.Cart.IsEmpty() {
		release()
		return nil, ErrEmptyCart
	}

	if err := s.checkStock(ctx, snap.Cart); err != nil {
		release()
		return nil, err
	}

	order := s.buildOrder(sessionID, customer, snap.Cart)
	createdOrder, err := s.orderRepo.CreateOrder(ctx, order)
	if err != nil {
		release()
		logger.Error().Err(err).Msg("Error creating order")
		return nil, err
	}

	session, err := s.gateway.CreatePayment(ctx, payment.Request{
		Reference:   createdOrder.Reference,
		Amount:      createdOrder.Total,
		Currency:    createdOrder.Currency,
		Description: s.describe(createdOrder),
		Customer:    paymentCustomer(createdOrder.Customer),
	})
	if err != nil {
		logger.Error().Err(err).Msgf("Error opening payment for order %d", createdOrder.Number)
		if err := s.orderRepo.UpdateOrderStatus(ctx, createdOrder.Number, entity.OrderFailed); err != nil {
			logger.Error().Err(err).Msgf("Error marking order %d failed", createdOrder.Number)
		}
		release()
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	if err := s.orderRepo.SetPaymentRef(ctx, createdOrder.Number, session.GatewayRef); err != nil {
		logger.Error().Err(err).Msgf("Error saving payment reference for order %d", createdOrder.Number)
		return nil, err
	}
	createdOrder.PaymentRef = session.GatewayRef
	createdOrder.PaymentURL = session.URL

	s.publish(ctx, EventOrderCreated, createdOrder)
	logger.Info().Msgf("Order %d created for %s", createdOrder.Number, FormatAmount(createdOrder.Total, createdOrder.Currency))
	return createdOrder, nil
}

// ConfirmPayment asks the gateway how payment of an order went and settles
// the order accordingly. Orders whose outcome is already final are returned
// unchanged.
func (s *OrderService) ConfirmPayment(ctx context.Context, number int64) (*entity.Order, error) {
	order, err := s.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	if order.Status.Final() || order.PaymentRef == "" {
		return order, nil
	}

	status, err := s.gateway.CheckPayment(ctx, order.PaymentRef)
	if err != nil {
		logger.Error().Err(err).Msgf("Error checking payment for order %d", number)
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	var (
		next  entity.OrderStatus
		event string
	)
	switch status {
	case payment.StatusPaid:
		next, event = entity.OrderPaid, EventOrderPaid
	case payment.StatusDeclined:
		next, event = entity.OrderFailed, EventOrderFailed
	case payment.StatusCancelled, payment.StatusExpired:
		next, event = entity.OrderCancelled, EventOrderVoided
	default:
		return order, nil
	}
	if next == order.Status {
		return order, nil
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, number, next); err != nil {
		logger.Error().Err(err).Msgf("Error updating order %d", number)
		return nil, err
	}
	order.Status = next
	order.UpdatedAt = s.now().UTC()
	s.publish(ctx, event, order)

	if next == entity.OrderPaid {
		if err := s.cartRepo.Delete(ctx, order.SessionID); err != nil {
			logger.Error().Err(err).Msgf("Error clearing cart for order %d", number)
		}
		if err := s.publisher.PublishNotification(ctx, BuildNotification(order, s.cfg.StoreName)); err != nil {
			logger.Error().Err(err).Msgf("Error publishing notification for order %d", number)
		}
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, number int64) (*entity.Order, error) {
	order, err := s.orderRepo.GetOrderByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order %d", number)
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves an order along the fulfilment graph on behalf of an
// admin.
func (s *OrderService) UpdateStatus(ctx context.Context, number int64, next entity.OrderStatus) (*entity.Order, error) {
	order, err := s.GetOrder(ctx, number)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, next)
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, number, next); err != nil {
		logger.Error().Err(err).Msgf("Error updating order %d", number)
		return nil, err
	}
	previous := order.Status
	order.Status = next
	order.UpdatedAt = s.now().UTC()
	s.publish(ctx, transitionEvent(previous, next), order)
	return order, nil
}

func transitionEvent(previous, next entity.OrderStatus) string {
	switch next {
	case entity.OrderCancelled:
		if previous == entity.OrderPaid {
			return EventOrderCancelled
		}
		return EventOrderVoided
	case entity.OrderAwaitingPayment:
		return EventOrderReopened
	default:
		return string(next)
	}
}

// checkStock sums the quantity per product across variant lines and checks
// every product concurrently.
func (s *OrderService) checkStock(ctx context.Context, c *cart.Cart) error {
	needed := make(map[int64]int)
	for _, item := range c.Items {
		needed[item.ProductID] += item.Quantity
	}

	g, gctx := errgroup.WithContext(ctx)
	for productID, quantity := range needed {
		g.Go(func() error {
			stock, err := s.stock.GetProductStock(gctx, productID)
			if errors.Is(err, ErrProductNotFound) {
				return fmt.Errorf("%w: product %d", ErrProductUnavailable, productID)
			}
			if err != nil {
				logger.Error().Err(err).Msgf("Error checking product stock for product %d", productID)
				return err
			}
			if stock < quantity {
				logger.Warn().Msgf("Product %d out of stock", productID)
				return fmt.Errorf("%w: product %d has %d left", ErrOutOfStock, productID, stock)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *OrderService) buildOrder(sessionID string, customer entity.Customer, c *cart.Cart) *entity.Order {
	now := s.now().UTC()
	order := &entity.Order{
		Number:        randomOrderNumber(now),
		Reference:     uuid.NewString(),
		SessionID:     sessionID,
		Status:        entity.OrderAwaitingPayment,
		Customer:      customer,
		Currency:      s.cfg.Currency,
		Items:         make([]entity.OrderItem, 0, c.Len()),
		TotalQuantity: c.TotalQuantities,
		GrossTotal:    c.TotalPrice,
		DiscountTotal: c.Discount(),
		Total:         c.AdjustedTotalPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, item := range c.Items {
		order.Items = append(order.Items, entity.OrderItem{
			ProductID:      item.ProductID,
			Name:           item.Name,
			Attributes:     item.Attributes,
			UnitPrice:      item.UnitPrice,
			EffectivePrice: cart.EffectivePrice(item),
			Quantity:       item.Quantity,
		})
	}
	return order
}

func (s *OrderService) describe(order *entity.Order) string {
	return fmt.Sprintf("%s order %d (%d items)", s.cfg.StoreName, order.Number, order.TotalQuantity)
}

// publish logs instead of failing: the order is already persisted.
func (s *OrderService) publish(ctx context.Context, event string, order *entity.Order) {
	if err := s.publisher.PublishOrderEvent(ctx, event, order); err != nil {
		logger.Error().Err(err).Msgf("Error publishing %s event for order %d", event, order.Number)
	}
}

func paymentCustomer(c entity.Customer) payment.Customer {
	return payment.Customer{
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
		Address: payment.Address{
			Line1:    c.AddressLine1,
			Line2:    c.AddressLine2,
			City:     c.City,
			Region:   c.Region,
			Country:  c.Country,
			Postcode: c.Postcode,
		},
	}
}

// randomOrderNumber is millisecond time with three random digits appended.
func randomOrderNumber(now time.Time) int64 {
	return now.UnixMilli()*1000 + rand.Int63n(1000)
}

// FormatAmount renders minor units as a two-decimal amount with currency.
func FormatAmount(minor int64, currency string) string {
	return decimal.New(minor, -2).StringFixed(2) + " " + currency
}

// BuildNotification summarises a paid order for the customer mailer.
func BuildNotification(order *entity.Order, storeName string) *entity.Notification {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.Name
		if len(item.Attributes) > 0 {
			name += " (" + strings.Join(item.Attributes, ", ") + ")"
		}
		subtotal := item.EffectivePrice * int64(item.Quantity)
		lines = append(lines, fmt.Sprintf("%d x %s = %s", item.Quantity, name, FormatAmount(subtotal, order.Currency)))
	}
	return &entity.Notification{
		OrderNumber: order.Number,
		Reference:   order.Reference,
		Email:       order.Customer.Email,
		Name:        order.Customer.Name,
		Subject:     fmt.Sprintf("%s: payment received for order %d", storeName, order.Number),
		Lines:       lines,
		Total:       FormatAmount(order.Total, order.Currency),
	}
}
