package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	Catalog Catalog
	Carts   Carts
	Orders  Orders
	Auth    Auth

	Currency      string
	SessionTTL    time.Duration
	SecureCookies bool
	RateLimit     float64
	RateBurst     int
}

// NewRouter wires every storefront and admin route onto a fresh echo
// instance.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, headerIdempotencyKey},
		AllowCredentials: false,
	}))
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"service": "storefront-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	catalogHandler := NewCatalogHandler(cfg.Catalog)
	cartHandler := NewCartHandler(cfg.Carts, cfg.Currency)
	orderHandler := NewOrderHandler(cfg.Orders)
	adminHandler := NewAdminHandler(cfg.Auth)

	e.GET("/products", catalogHandler.ListProducts)
	e.GET("/products/:id", catalogHandler.GetProduct)
	e.GET("/categories", catalogHandler.ListCategories)

	shop := e.Group("", SessionMiddleware(cfg.SessionTTL, cfg.SecureCookies))
	shop.GET("/cart", cartHandler.GetCart)
	shop.POST("/cart/items", cartHandler.AddItem)
	shop.PUT("/cart/items", cartHandler.SetQuantity)
	shop.POST("/cart/items/decrement", cartHandler.DecrementItem)
	shop.POST("/cart/items/remove", cartHandler.RemoveItem)
	shop.DELETE("/cart", cartHandler.Clear)
	shop.POST("/cart/bundles", cartHandler.AddBundle)
	shop.POST("/checkout", orderHandler.Checkout)
	shop.POST("/checkout/:number/confirm", orderHandler.ConfirmPayment)

	e.POST("/admin/login", adminHandler.Login)

	admin := e.Group("/admin", AdminGate(cfg.Auth)...)
	admin.POST("/logout", adminHandler.Logout)
	admin.GET("/me", adminHandler.Me)
	admin.GET("/products", catalogHandler.AdminListProducts)
	admin.POST("/products", catalogHandler.CreateProduct)
	admin.GET("/products/export", catalogHandler.ExportProducts)
	admin.PUT("/products/:id", catalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", catalogHandler.DeleteProduct)
	admin.GET("/categories", catalogHandler.ListCategories)
	admin.POST("/categories", catalogHandler.CreateCategory)
	admin.PUT("/categories/:id", catalogHandler.UpdateCategory)
	admin.DELETE("/categories/:id", catalogHandler.DeleteCategory)
	admin.GET("/orders", orderHandler.ListOrders)
	admin.GET("/orders/:number", orderHandler.GetOrder)
	admin.PUT("/orders/:number/status", orderHandler.UpdateStatus)
	admin.POST("/cache/warmup", catalogHandler.PreWarmupCache)

	return e
}
