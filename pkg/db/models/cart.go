package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart belongs to exactly one owner: a registered user or an anonymous
// session. The partial unique indexes guarantee at most one open cart per
// owner, and the check constraint rejects rows claiming both or neither.
type Cart struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex:ux_carts_user_id"`
	SessionKey *string    `gorm:"column:session_key;type:text;uniqueIndex:ux_carts_session_key"`
	Lines      []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CartLine holds one variation inside a cart. Prices are not snapshotted;
// the view layer prices lines live off the catalog.
type CartLine struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	CartID      uuid.UUID         `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:ux_cart_lines_cart_variation,priority:1"`
	VariationID uuid.UUID         `gorm:"column:variation_id;type:uuid;not null;uniqueIndex:ux_cart_lines_cart_variation,priority:2"`
	Quantity    int               `gorm:"column:quantity;not null"`
	Variation   *ProductVariation `gorm:"foreignKey:VariationID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
