package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the top-level catalog entity. Purchasable stock lives two levels
// down on ProductVariation.
type Product struct {
	ID          uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string        `gorm:"column:name;not null"`
	Slug        string        `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Description string        `gorm:"column:description;not null;default:''"`
	Category    string        `gorm:"column:category;not null;default:''"`
	IsActive    bool          `gorm:"column:is_active;not null;default:true"`
	Items       []ProductItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductItem is a colorway/style of a product and carries pricing. SalePrice,
// when set, wins over OriginalPrice at display and cart-pricing time.
type ProductItem struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	SKU           string             `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Color         string             `gorm:"column:color;not null;default:''"`
	ImageURL      *string            `gorm:"column:image_url"`
	OriginalPrice decimal.Decimal    `gorm:"column:original_price;type:numeric(10,2);not null"`
	SalePrice     *decimal.Decimal   `gorm:"column:sale_price;type:numeric(10,2)"`
	Variations    []ProductVariation `gorm:"foreignKey:ProductItemID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariation is the purchasable unit (item + size) and owns stock.
type ProductVariation struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductItemID uuid.UUID `gorm:"column:product_item_id;type:uuid;not null;uniqueIndex:ux_product_variations_item_size,priority:1"`
	Size          string    `gorm:"column:size;not null;uniqueIndex:ux_product_variations_item_size,priority:2"`
	QtyInStock    int       `gorm:"column:qty_in_stock;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
