package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

const headerIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	orders Orders
}

// NewOrderHandler creates a new instance of OrderHandler
func NewOrderHandler(orders Orders) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Checkout turns the session cart into an order --> POST /checkout
func (h *OrderHandler) Checkout(c echo.Context) error {
	customer := entity.Customer{}
	if err := bind(c, &customer); err != nil {
		return respondError(c, err)
	}
	key := c.Request().Header.Get(headerIdempotencyKey)

	order, err := h.orders.Checkout(c.Request().Context(), sessionID(c), key, customer)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ConfirmPayment settles an order of the current session --> POST /checkout/:number/confirm
func (h *OrderHandler) ConfirmPayment(c echo.Context) error {
	number, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order number"})
	}
	ctx := c.Request().Context()

	order, err := h.orders.GetOrder(ctx, number)
	if err != nil {
		return respondError(c, err)
	}
	if order.SessionID != sessionID(c) {
		return respondError(c, service.ErrOrderNotFound)
	}

	order, err = h.orders.ConfirmPayment(ctx, number)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders --> GET /admin/orders?status=&limit=
func (h *OrderHandler) ListOrders(c echo.Context) error {
	filter := entity.OrderFilter{Status: entity.OrderStatus(c.QueryParam("status"))}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		}
		filter.Limit = limit
	}

	orders, err := h.orders.ListOrders(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder --> GET /admin/orders/:number
func (h *OrderHandler) GetOrder(c echo.Context) error {
	number, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order number"})
	}
	order, err := h.orders.GetOrder(c.Request().Context(), number)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus --> PUT /admin/orders/:number/status
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	number, err := strconv.ParseInt(c.Param("number"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order number"})
	}
	req := struct {
		Status entity.OrderStatus `json:"status" validate:"required,oneof=awaiting_payment paid failed cancelled shipped delivered"`
	}{}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	order, err := h.orders.UpdateStatus(c.Request().Context(), number, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
