package service

import (
	"context"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"storefront-service/internal/entity"
)

var exportHeader = []string{"ID", "Name", "Category", "Price", "Discount %", "Discount Amount", "Stock", "Options", "Active"}

// ExportProducts writes the whole catalog as an xlsx workbook to w.
func (s *CatalogService) ExportProducts(ctx context.Context, w io.Writer) error {
	products, err := s.productRepo.GetProducts(ctx, entity.ProductFilter{})
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products for export")
		return err
	}
	categories, err := s.categoryRepo.GetCategories(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting categories for export")
		return err
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, category := range categories {
		categoryNames[category.ID] = category.Name
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, title := range exportHeader {
		header.AddCell().SetString(title)
	}

	for _, product := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(product.ID)
		row.AddCell().SetString(product.Name)
		row.AddCell().SetString(categoryNames[product.CategoryID])
		row.AddCell().SetString(decimal.New(product.Price, -2).StringFixed(2))
		row.AddCell().SetValue(product.DiscountPercentage)
		row.AddCell().SetString(decimal.New(product.DiscountAmount, -2).StringFixed(2))
		row.AddCell().SetValue(product.Stock)
		row.AddCell().SetString(strings.Join(product.Options, ", "))
		row.AddCell().SetValue(product.Active)
	}

	return file.Write(w)
}
