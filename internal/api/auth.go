package api

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"storefront-service/internal/service"
)

const claimsKey = "admin"

// AdminGate verifies the bearer token, then requires the admin role and a
// live session for it.
func AdminGate(auth Auth) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    auth.Secret(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.AdminClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
		},
	})

	authorize := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
			}
			claims, ok := token.Claims.(*service.AdminClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
			}
			if err := auth.Authorize(c.Request().Context(), claims); err != nil {
				return respondError(c, err)
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}

	return []echo.MiddlewareFunc{verify, authorize}
}

func adminClaims(c echo.Context) *service.AdminClaims {
	claims, _ := c.Get(claimsKey).(*service.AdminClaims)
	return claims
}
