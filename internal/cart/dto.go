package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineDTO is one priced cart entry. Pricing is resolved live against the
// catalog at read time, never snapshotted into the cart.
type LineDTO struct {
	VariationID uuid.UUID       `json:"variation_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	OnSale      bool            `json:"on_sale"`
	QtyInStock  int             `json:"qty_in_stock"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

// CartDTO is the full cart payload returned to clients.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	Lines      []LineDTO       `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	TotalItems int             `json:"total_items"`
}
