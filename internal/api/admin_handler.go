package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	auth Auth
}

// NewAdminHandler creates a new instance of AdminHandler
func NewAdminHandler(auth Auth) *AdminHandler {
	return &AdminHandler{auth: auth}
}

// Login --> POST /admin/login
func (h *AdminHandler) Login(c echo.Context) error {
	login := struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}{}
	if err := bind(c, &login); err != nil {
		return respondError(c, err)
	}

	token, err := h.auth.Login(c.Request().Context(), login.Email, login.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// Logout revokes the caller's token --> POST /admin/logout
func (h *AdminHandler) Logout(c echo.Context) error {
	claims := adminClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
	}
	if err := h.auth.Logout(c.Request().Context(), claims); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the signed-in admin --> GET /admin/me
func (h *AdminHandler) Me(c echo.Context) error {
	claims := adminClaims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid token"})
	}
	return c.JSON(http.StatusOK, map[string]string{"name": claims.Name, "email": claims.Email, "role": claims.Role})
}
