package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/cart"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
)

type CartHandler struct {
	carts    Carts
	currency string
}

// NewCartHandler creates a new instance of CartHandler
func NewCartHandler(carts Carts, currency string) *CartHandler {
	return &CartHandler{carts: carts, currency: currency}
}

type cartLineView struct {
	ProductID        int64         `json:"product_id"`
	Name             string        `json:"name"`
	Attributes       []string      `json:"attributes"`
	UnitPrice        int64         `json:"unit_price"`
	Discount         cart.Discount `json:"discount"`
	EffectivePrice   int64         `json:"effective_price"`
	Quantity         int           `json:"quantity"`
	Subtotal         int64         `json:"subtotal"`
	AdjustedSubtotal int64         `json:"adjusted_subtotal"`
}

type cartView struct {
	Version            int64          `json:"version"`
	State              cart.State     `json:"state"`
	Currency           string         `json:"currency"`
	Items              []cartLineView `json:"items"`
	TotalQuantities    int            `json:"total_quantities"`
	TotalPrice         int64          `json:"total_price"`
	AdjustedTotalPrice int64          `json:"adjusted_total_price"`
	Discount           int64          `json:"discount"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

func (h *CartHandler) view(snap *repository.CartSnapshot) cartView {
	c := snap.Cart
	v := cartView{
		Version:            snap.Version,
		State:              c.State(),
		Currency:           h.currency,
		Items:              make([]cartLineView, 0, c.Len()),
		TotalQuantities:    c.TotalQuantities,
		TotalPrice:         c.TotalPrice,
		AdjustedTotalPrice: c.AdjustedTotalPrice,
		Discount:           c.Discount(),
	}
	if !snap.UpdatedAt.IsZero() {
		v.UpdatedAt = &snap.UpdatedAt
	}
	for _, item := range c.Items {
		attrs := item.Attributes
		if attrs == nil {
			attrs = []string{}
		}
		v.Items = append(v.Items, cartLineView{
			ProductID:        item.ProductID,
			Name:             item.Name,
			Attributes:       attrs,
			UnitPrice:        item.UnitPrice,
			Discount:         item.Discount,
			EffectivePrice:   cart.EffectivePrice(item),
			Quantity:         item.Quantity,
			Subtotal:         item.Subtotal(),
			AdjustedSubtotal: item.AdjustedSubtotal(),
		})
	}
	return v
}

func (h *CartHandler) respond(c echo.Context, snap *repository.CartSnapshot, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.view(snap))
}

// GetCart --> GET /cart
func (h *CartHandler) GetCart(c echo.Context) error {
	snap, err := h.carts.GetCart(c.Request().Context(), sessionID(c))
	return h.respond(c, snap, err)
}

// AddItem --> POST /cart/items
func (h *CartHandler) AddItem(c echo.Context) error {
	req := service.AddItemRequest{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	snap, err := h.carts.AddItem(c.Request().Context(), sessionID(c), req)
	return h.respond(c, snap, err)
}

// SetQuantity --> PUT /cart/items
func (h *CartHandler) SetQuantity(c echo.Context) error {
	req := service.SetQuantityRequest{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	snap, err := h.carts.SetQuantity(c.Request().Context(), sessionID(c), req)
	return h.respond(c, snap, err)
}

// DecrementItem --> POST /cart/items/decrement
func (h *CartHandler) DecrementItem(c echo.Context) error {
	req := service.ItemKeyRequest{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	snap, err := h.carts.DecrementItem(c.Request().Context(), sessionID(c), req)
	return h.respond(c, snap, err)
}

// RemoveItem --> POST /cart/items/remove
func (h *CartHandler) RemoveItem(c echo.Context) error {
	req := service.ItemKeyRequest{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	snap, err := h.carts.RemoveItem(c.Request().Context(), sessionID(c), req)
	return h.respond(c, snap, err)
}

// Clear --> DELETE /cart
func (h *CartHandler) Clear(c echo.Context) error {
	snap, err := h.carts.Clear(c.Request().Context(), sessionID(c))
	return h.respond(c, snap, err)
}

// AddBundle --> POST /cart/bundles
func (h *CartHandler) AddBundle(c echo.Context) error {
	req := service.AddBundleRequest{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	snap, err := h.carts.AddBundle(c.Request().Context(), sessionID(c), req)
	return h.respond(c, snap, err)
}
