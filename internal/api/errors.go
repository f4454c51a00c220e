package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/cart"
	"storefront-service/internal/service"
)

var errInvalidPayload = errors.New("invalid request payload")

// bind decodes and validates a request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", errInvalidPayload, err)
	}
	return nil
}

func errorStatus(err error) int {
	var invalidItem *cart.InvalidItemError
	switch {
	case errors.As(err, &invalidItem),
		errors.Is(err, errInvalidPayload),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidAttribute),
		errors.Is(err, service.ErrInvalidBundle),
		errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrProductUnavailable),
		errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrCartBusy),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrPaymentUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": "..."} with a matching status.
func respondError(c echo.Context, err error) error {
	status := errorStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
		msg = "internal server error"
	case http.StatusBadGateway:
		msg = service.ErrPaymentUnavailable.Error()
	}
	return c.JSON(status, map[string]string{"error": msg})
}
