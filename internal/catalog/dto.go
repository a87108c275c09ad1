package catalog

import (
	"time"

	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariationDetail is the purchasable-unit view the cart prices against.
// UnitPrice is the live price: sale price when present, original otherwise.
type VariationDetail struct {
	VariationID   uuid.UUID
	ProductItemID uuid.UUID
	ProductID     uuid.UUID
	ProductName   string
	SKU           string
	Color         string
	Size          string
	UnitPrice     decimal.Decimal
	OriginalPrice decimal.Decimal
	OnSale        bool
	QtyInStock    int
	IsActive      bool
}

// ProductSummary is the listing row returned by the catalog index.
type ProductSummary struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Category  string          `json:"category"`
	MinPrice  decimal.Decimal `json:"min_price"`
	OnSale    bool            `json:"on_sale"`
	CreatedAt time.Time       `json:"created_at"`
}

// ProductListResult pairs a page of summaries with the next cursor.
type ProductListResult struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ProductListFilters narrows the catalog index.
type ProductListFilters struct {
	Category string
	Query    string
}

// VariationDTO exposes a purchasable unit on the product detail payload.
type VariationDTO struct {
	ID         uuid.UUID `json:"id"`
	Size       string    `json:"size"`
	QtyInStock int       `json:"qty_in_stock"`
}

// ItemDTO exposes a colorway with its live price and variations.
type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	SKU           string          `json:"sku"`
	Color         string          `json:"color"`
	ImageURL      *string         `json:"image_url,omitempty"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	OnSale        bool            `json:"on_sale"`
	Variations    []VariationDTO  `json:"variations"`
}

// ProductDTO is the product detail payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Items       []ItemDTO `json:"items"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LivePrice resolves the display/cart price for an item: sale price wins.
func LivePrice(item *models.ProductItem) (decimal.Decimal, bool) {
	if item.SalePrice != nil && item.SalePrice.LessThan(item.OriginalPrice) {
		return *item.SalePrice, true
	}
	return item.OriginalPrice, false
}

// NewProductDTO builds the detail payload from the persisted aggregate.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		Category:    product.Category,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}

	for i := range product.Items {
		item := &product.Items[i]
		price, onSale := LivePrice(item)
		itemDTO := ItemDTO{
			ID:            item.ID,
			SKU:           item.SKU,
			Color:         item.Color,
			ImageURL:      item.ImageURL,
			Price:         price,
			OriginalPrice: item.OriginalPrice,
			OnSale:        onSale,
		}
		for _, variation := range item.Variations {
			itemDTO.Variations = append(itemDTO.Variations, VariationDTO{
				ID:         variation.ID,
				Size:       variation.Size,
				QtyInStock: variation.QtyInStock,
			})
		}
		dto.Items = append(dto.Items, itemDTO)
	}

	return dto
}
