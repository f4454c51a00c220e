package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"
)

const productCacheTTL = 10 * time.Minute

type CatalogService struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	rdb          *redis.Client
}

// NewCatalogService creates a new instance of CatalogService.
func NewCatalogService(productRepo ProductRepository, categoryRepo CategoryRepository, rdb *redis.Client) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		rdb:          rdb,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// GetProduct reads a product through the cache. Cache failures are logged and
// fall back to the database.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	key := productKey(id)
	cached, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product entity.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			return &product, nil
		}
		logger.Warn().Msgf("Discarding unreadable cache entry for product %d", id)
	case !errors.Is(err, redis.Nil):
		logger.Error().Err(err).Msgf("Error getting product %d from cache", id)
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting product by ID %d", id)
		return nil, err
	}

	s.cacheProduct(ctx, product)
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	products, err := s.productRepo.GetProducts(ctx, filter)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return nil, err
	}
	return products, nil
}

// GetProductStock reads stock from the database. The cache may lag behind
// reservations, so it is not consulted.
func (s *CatalogService) GetProductStock(ctx context.Context, id int64) (int, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting stock for product %d", id)
		return 0, err
	}
	return product.Stock, nil
}

// ReserveStock takes quantity units out of stock for a paid order.
func (s *CatalogService) ReserveStock(ctx context.Context, id int64, quantity int) error {
	err := s.productRepo.AdjustStock(ctx, id, -quantity)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrInsufficientStock):
		logger.Warn().Msgf("Product %d out of stock", id)
		return ErrOutOfStock
	case err != nil:
		logger.Error().Err(err).Msgf("Error reserving stock for product %d", id)
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// ReleaseStock puts quantity units back when a paid order is cancelled.
func (s *CatalogService) ReleaseStock(ctx context.Context, id int64, quantity int) error {
	err := s.productRepo.AdjustStock(ctx, id, quantity)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error releasing stock for product %d", id)
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// PreWarmCache loads every active product into the cache.
func (s *CatalogService) PreWarmCache(ctx context.Context) (int, error) {
	products, err := s.productRepo.GetProducts(ctx, entity.ProductFilter{ActiveOnly: true})
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return 0, err
	}

	for _, product := range products {
		s.cacheProduct(ctx, product)
	}
	logger.Info().Msgf("Warmed cache with %d products", len(products))
	return len(products), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := s.validateProduct(ctx, product); err != nil {
		return nil, err
	}
	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if err := s.validateProduct(ctx, product); err != nil {
		return nil, err
	}
	updated, err := s.productRepo.UpdateProduct(ctx, product)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating product %d", product.ID)
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.productRepo.DeleteProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %d", id)
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	categories, err := s.categoryRepo.GetCategories(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting categories")
		return nil, err
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	created, err := s.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating category")
		return nil, err
	}
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, category *entity.Category) (*entity.Category, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	updated, err := s.categoryRepo.UpdateCategory(ctx, category)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating category %d", category.ID)
		return nil, err
	}
	return updated, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.categoryRepo.DeleteCategory(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrCategoryNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error deleting category %d", id)
		return err
	}
	return nil
}

func (s *CatalogService) validateProduct(ctx context.Context, product *entity.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	switch {
	case product.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case product.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case product.DiscountPercentage < 0 || product.DiscountPercentage > 100:
		return fmt.Errorf("%w: discount percentage must be between 0 and 100", ErrInvalidProduct)
	case product.DiscountAmount < 0 || product.DiscountAmount > product.Price:
		return fmt.Errorf("%w: discount amount must be between 0 and the price", ErrInvalidProduct)
	case product.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	seen := make(map[string]bool, len(product.Options))
	for i, option := range product.Options {
		option = strings.TrimSpace(option)
		if option == "" || strings.HasPrefix(option, bundleTagPrefix) {
			return fmt.Errorf("%w: option %q is not allowed", ErrInvalidProduct, option)
		}
		if seen[option] {
			return fmt.Errorf("%w: duplicate option %q", ErrInvalidProduct, option)
		}
		seen[option] = true
		product.Options[i] = option
	}

	if product.CategoryID != 0 {
		_, err := s.categoryRepo.GetCategoryByID(ctx, product.CategoryID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validateCategory(category *entity.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	category.Slug = strings.ToLower(strings.TrimSpace(category.Slug))
	if category.Name == "" || category.Slug == "" {
		return fmt.Errorf("%w: name and slug are required", ErrInvalidCategory)
	}
	return nil
}

func (s *CatalogService) cacheProduct(ctx context.Context, product *entity.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling product %d", product.ID)
		return
	}
	if err := s.rdb.Set(ctx, productKey(product.ID), data, productCacheTTL).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting product %d in cache", product.ID)
	}
}

func (s *CatalogService) invalidate(ctx context.Context, id int64) {
	if err := s.rdb.Del(ctx, productKey(id)).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error deleting product %d from cache", id)
	}
}
