package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/cart"
	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

const bundleTagPrefix = "bundle:"

type AddItemRequest struct {
	ProductID  int64    `json:"product_id" validate:"required,gt=0"`
	Quantity   int      `json:"quantity" validate:"required,min=1,max=99"`
	Attributes []string `json:"attributes" validate:"max=8,dive,required,max=64"`
}

// ItemKeyRequest identifies a cart line.
type ItemKeyRequest struct {
	ProductID  int64    `json:"product_id" validate:"required,gt=0"`
	Attributes []string `json:"attributes" validate:"max=8,dive,max=64"`
}

// Key trims attributes the same way AddItem stores them.
func (r ItemKeyRequest) Key() cart.Key {
	return cart.Key{ProductID: r.ProductID, Attributes: trimAttributes(r.Attributes)}
}

type SetQuantityRequest struct {
	ProductID  int64    `json:"product_id" validate:"required,gt=0"`
	Attributes []string `json:"attributes" validate:"max=8,dive,max=64"`
	Quantity   int      `json:"quantity" validate:"min=0,max=99"`
}

type AddBundleRequest struct {
	Name       string  `json:"name" validate:"required,max=64"`
	ProductIDs []int64 `json:"product_ids" validate:"required,min=1,max=12,dive,gt=0"`
	Quantity   int     `json:"quantity" validate:"omitempty,min=1,max=20"`
}

// ProductReader resolves catalog products for the cart.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
}

type BundleConfig struct {
	DiscountPercentage float64
	MinItems           int
}

// CartService validates shopper input against the catalog before it reaches
// the cart aggregator.
type CartService struct {
	cartRepo CartRepository
	products ProductReader
	bundle   BundleConfig
}

// NewCartService creates a new instance of CartService.
func NewCartService(cartRepo CartRepository, products ProductReader, bundle BundleConfig) *CartService {
	if bundle.MinItems < 1 {
		bundle.MinItems = 1
	}
	return &CartService{
		cartRepo: cartRepo,
		products: products,
		bundle:   bundle,
	}
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*repository.CartSnapshot, error) {
	snap, err := s.cartRepo.Get(ctx, sessionID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting cart for session %s", sessionID)
		return nil, err
	}
	return snap, nil
}

// AddItem resolves the product, snapshots its price and discount and adds
// the requested quantity to the session cart.
func (s *CartService) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*repository.CartSnapshot, error) {
	attributes, err := normalizeAttributes(req.Attributes)
	if err != nil {
		return nil, err
	}
	product, err := s.activeProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	for _, attr := range attributes {
		if !product.HasOption(attr) {
			return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidAttribute, attr, product.Name)
		}
	}

	item := lineItemFor(product, attributes, req.Quantity)
	return s.update(ctx, sessionID, func(c *cart.Cart) error {
		return c.AddItem(item)
	})
}

// AddBundle adds one line per bundled product, tagged with the bundle name.
// Products without a discount of their own get the bundle percentage.
func (s *CartService) AddBundle(ctx context.Context, sessionID string, req AddBundleRequest) (*repository.CartSnapshot, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidBundle)
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	ids := make([]int64, 0, len(req.ProductIDs))
	seen := make(map[int64]bool, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) < s.bundle.MinItems {
		return nil, fmt.Errorf("%w: pick at least %d different products", ErrInvalidBundle, s.bundle.MinItems)
	}

	tag := []string{bundleTagPrefix + name}
	items := make([]cart.LineItem, 0, len(ids))
	for _, id := range ids {
		product, err := s.activeProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		item := lineItemFor(product, tag, quantity)
		if item.Discount == (cart.Discount{}) {
			item.Discount.Percentage = s.bundle.DiscountPercentage
		}
		items = append(items, item)
	}

	return s.update(ctx, sessionID, func(c *cart.Cart) error {
		for _, item := range items {
			if err := c.AddItem(item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CartService) DecrementItem(ctx context.Context, sessionID string, req ItemKeyRequest) (*repository.CartSnapshot, error) {
	return s.update(ctx, sessionID, func(c *cart.Cart) error {
		c.DecrementItem(req.Key())
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID string, req ItemKeyRequest) (*repository.CartSnapshot, error) {
	return s.update(ctx, sessionID, func(c *cart.Cart) error {
		c.RemoveItem(req.Key())
		return nil
	})
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, req SetQuantityRequest) (*repository.CartSnapshot, error) {
	if req.Quantity < 0 {
		return nil, &cart.InvalidItemError{ProductID: req.ProductID, Quantity: req.Quantity, Reason: "quantity must not be negative"}
	}
	key := ItemKeyRequest{ProductID: req.ProductID, Attributes: req.Attributes}.Key()
	return s.update(ctx, sessionID, func(c *cart.Cart) error {
		c.SetQuantity(key, req.Quantity)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (*repository.CartSnapshot, error) {
	return s.update(ctx, sessionID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *CartService) update(ctx context.Context, sessionID string, fn func(*cart.Cart) error) (*repository.CartSnapshot, error) {
	snap, err := s.cartRepo.Update(ctx, sessionID, fn)
	if errors.Is(err, repository.ErrConflict) {
		logger.Warn().Msgf("Cart for session %s kept changing, giving up", sessionID)
		return nil, ErrCartBusy
	}
	if err != nil {
		var invalid *cart.InvalidItemError
		if !errors.As(err, &invalid) {
			logger.Error().Err(err).Msgf("Error updating cart for session %s", sessionID)
		}
		return nil, err
	}
	return snap, nil
}

func (s *CartService) activeProduct(ctx context.Context, id int64) (*entity.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
	}
	return product, nil
}

// lineItemFor snapshots a product into a line item with its discount
// clamped into range.
func lineItemFor(product *entity.Product, attributes []string, quantity int) cart.LineItem {
	price := max(product.Price, 0)
	discount := cart.Discount{
		Percentage: min(max(product.DiscountPercentage, 0), 100),
		Amount:     min(max(product.DiscountAmount, 0), price),
	}
	return cart.LineItem{
		ProductID:  product.ID,
		Name:       product.Name,
		UnitPrice:  price,
		Attributes: attributes,
		Discount:   discount,
		Quantity:   quantity,
	}
}

func trimAttributes(attributes []string) []string {
	out := make([]string, len(attributes))
	for i, attr := range attributes {
		out[i] = strings.TrimSpace(attr)
	}
	return out
}

func normalizeAttributes(attributes []string) ([]string, error) {
	out := make([]string, 0, len(attributes))
	for _, attr := range attributes {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			return nil, fmt.Errorf("%w: empty attribute", ErrInvalidAttribute)
		}
		if strings.HasPrefix(attr, bundleTagPrefix) {
			return nil, fmt.Errorf("%w: %q is reserved for bundles", ErrInvalidAttribute, attr)
		}
		out = append(out, attr)
	}
	return out, nil
}
