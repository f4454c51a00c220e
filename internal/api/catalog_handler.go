package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"
)

type CatalogHandler struct {
	catalog Catalog
}

// NewCatalogHandler creates a new instance of CatalogHandler
func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts lists active products --> GET /products?category_id=
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid category ID"})
	}
	filter.ActiveOnly = true

	products, err := h.catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct gets an active product --> GET /products/:id
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !product.Active {
		return respondError(c, service.ErrProductNotFound)
	}
	return c.JSON(http.StatusOK, product)
}

// ListCategories --> GET /categories
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	categories, err := h.catalog.ListCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// AdminListProducts lists every product, inactive included --> GET /admin/products
func (h *CatalogHandler) AdminListProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid category ID"})
	}

	products, err := h.catalog.ListProducts(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct --> POST /admin/products
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	product := entity.Product{}
	if err := bind(c, &product); err != nil {
		return respondError(c, err)
	}
	product.ID = 0

	created, err := h.catalog.CreateProduct(c.Request().Context(), &product)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateProduct --> PUT /admin/products/:id
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}
	product := entity.Product{}
	if err := bind(c, &product); err != nil {
		return respondError(c, err)
	}
	product.ID = id

	updated, err := h.catalog.UpdateProduct(c.Request().Context(), &product)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteProduct --> DELETE /admin/products/:id
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExportProducts streams the catalog as a spreadsheet --> GET /admin/products/export
func (h *CatalogHandler) ExportProducts(c echo.Context) error {
	filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102"))
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))

	// headers are only committed on the first write, so errors can still
	// be reported as JSON
	if err := h.catalog.ExportProducts(c.Request().Context(), res); err != nil {
		if res.Committed {
			return err
		}
		res.Header().Del(echo.HeaderContentDisposition)
		return respondError(c, err)
	}
	return nil
}

// CreateCategory --> POST /admin/categories
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	category := entity.Category{}
	if err := bind(c, &category); err != nil {
		return respondError(c, err)
	}
	category.ID = 0

	created, err := h.catalog.CreateCategory(c.Request().Context(), &category)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateCategory --> PUT /admin/categories/:id
func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid category ID"})
	}
	category := entity.Category{}
	if err := bind(c, &category); err != nil {
		return respondError(c, err)
	}
	category.ID = id

	updated, err := h.catalog.UpdateCategory(c.Request().Context(), &category)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteCategory --> DELETE /admin/categories/:id
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid category ID"})
	}
	if err := h.catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PreWarmupCache loads active products into the cache --> POST /admin/cache/warmup
func (h *CatalogHandler) PreWarmupCache(c echo.Context) error {
	n, err := h.catalog.PreWarmCache(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Cache pre-warmed", "products": n})
}

func productFilter(c echo.Context) (entity.ProductFilter, error) {
	filter := entity.ProductFilter{}
	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, err
		}
		filter.CategoryID = id
	}
	return filter, nil
}
