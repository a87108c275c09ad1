package catalog

import (
	"fmt"
	"testing"

	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		Category: "tops",
		IsActive: true,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func mustCreateTestItem(t *testing.T, tx *gorm.DB, productID uuid.UUID, original string, sale *string) *models.ProductItem {
	t.Helper()
	item := &models.ProductItem{
		ID:            uuid.New(),
		ProductID:     productID,
		SKU:           fmt.Sprintf("SKU-%s", uuid.NewString()),
		Color:         "black",
		OriginalPrice: decimal.RequireFromString(original),
	}
	if sale != nil {
		price := decimal.RequireFromString(*sale)
		item.SalePrice = &price
	}
	if err := tx.Create(item).Error; err != nil {
		t.Fatalf("create product item: %v", err)
	}
	return item
}

func mustCreateTestVariation(t *testing.T, tx *gorm.DB, itemID uuid.UUID, size string, stock int) *models.ProductVariation {
	t.Helper()
	variation := &models.ProductVariation{
		ID:            uuid.New(),
		ProductItemID: itemID,
		Size:          size,
		QtyInStock:    stock,
	}
	if err := tx.Create(variation).Error; err != nil {
		t.Fatalf("create variation: %v", err)
	}
	return variation
}

func strPtr(value string) *string {
	return &value
}
