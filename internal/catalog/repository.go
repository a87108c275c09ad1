package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/ateliermoda/moda-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetProductBySlug fetches a product aggregate with items and variations.
func (r *Repository) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sku ASC")
		}).
		Preload("Items.Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("size ASC")
		}).
		First(&product, "slug = ? AND is_active = ?", slug, true).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetVariationDetail resolves the purchasable unit with live pricing and stock.
func (r *Repository) GetVariationDetail(ctx context.Context, variationID uuid.UUID) (*VariationDetail, error) {
	var row variationRow
	err := r.db.WithContext(ctx).
		Table("product_variations pv").
		Select(strings.Join([]string{
			"pv.id AS variation_id",
			"pv.size",
			"pv.qty_in_stock",
			"pi.id AS product_item_id",
			"pi.sku",
			"pi.color",
			"pi.original_price",
			"pi.sale_price",
			"p.id AS product_id",
			"p.name AS product_name",
			"p.is_active",
		}, ", ")).
		Joins("JOIN product_items pi ON pi.id = pv.product_item_id").
		Joins("JOIN products p ON p.id = pi.product_id").
		Where("pv.id = ?", variationID).
		Take(&row).
		Error
	if err != nil {
		return nil, err
	}
	return row.toDetail(), nil
}

type variationRow struct {
	VariationID   uuid.UUID
	Size          string
	QtyInStock    int
	ProductItemID uuid.UUID
	SKU           string
	Color         string
	OriginalPrice decimal.Decimal
	SalePrice     decimal.NullDecimal
	ProductID     uuid.UUID
	ProductName   string
	IsActive      bool
}

func (r variationRow) toDetail() *VariationDetail {
	detail := &VariationDetail{
		VariationID:   r.VariationID,
		ProductItemID: r.ProductItemID,
		ProductID:     r.ProductID,
		ProductName:   r.ProductName,
		SKU:           r.SKU,
		Color:         r.Color,
		Size:          r.Size,
		UnitPrice:     r.OriginalPrice,
		OriginalPrice: r.OriginalPrice,
		QtyInStock:    r.QtyInStock,
		IsActive:      r.IsActive,
	}
	if r.SalePrice.Valid && r.SalePrice.Decimal.LessThan(r.OriginalPrice) {
		detail.UnitPrice = r.SalePrice.Decimal
		detail.OnSale = true
	}
	return detail
}

type productListQuery struct {
	Pagination pagination.Params
	Filters    ProductListFilters
}

// ListProductSummaries returns a page of active products for the index.
func (r *Repository) ListProductSummaries(ctx context.Context, query productListQuery) (*ProductListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	saleExistsClause := "EXISTS (SELECT 1 FROM product_items i WHERE i.product_id = p.id AND i.sale_price IS NOT NULL AND i.sale_price < i.original_price)"

	qb := r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join([]string{
			"p.id",
			"p.name",
			"p.slug",
			"p.category",
			"p.created_at",
			"(SELECT MIN(COALESCE(i.sale_price, i.original_price)) FROM product_items i WHERE i.product_id = p.id) AS min_price",
			saleExistsClause + " AS on_sale",
		}, ", ")).
		Where("p.is_active = ?", true)

	filter := query.Filters
	if category := strings.TrimSpace(filter.Category); category != "" {
		qb = qb.Where("p.category = ?", category)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(p.name) LIKE ? OR LOWER(p.slug) LIKE ?)", pattern, pattern)
	}

	if cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer)

	var records []productSummaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]ProductSummary, 0, len(resultRows))
	for _, record := range resultRows {
		summaries = append(summaries, record.toSummary())
	}

	return &ProductListResult{
		Products:   summaries,
		NextCursor: nextCursor,
	}, nil
}

type productSummaryRecord struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Category  string
	MinPrice  decimal.NullDecimal
	OnSale    bool
	CreatedAt time.Time
}

func (r productSummaryRecord) toSummary() ProductSummary {
	summary := ProductSummary{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		Category:  r.Category,
		OnSale:    r.OnSale,
		CreatedAt: r.CreatedAt,
	}
	if r.MinPrice.Valid {
		summary.MinPrice = r.MinPrice.Decimal
	}
	return summary
}

// ListLowStockVariations returns variations at or below the provided threshold.
func (r *Repository) ListLowStockVariations(ctx context.Context, threshold int) ([]VariationDetail, error) {
	var rows []variationRow
	err := r.db.WithContext(ctx).
		Table("product_variations pv").
		Select(strings.Join([]string{
			"pv.id AS variation_id",
			"pv.size",
			"pv.qty_in_stock",
			"pi.id AS product_item_id",
			"pi.sku",
			"pi.color",
			"pi.original_price",
			"pi.sale_price",
			"p.id AS product_id",
			"p.name AS product_name",
			"p.is_active",
		}, ", ")).
		Joins("JOIN product_items pi ON pi.id = pv.product_item_id").
		Joins("JOIN products p ON p.id = pi.product_id").
		Where("p.is_active = ?", true).
		Where("pv.qty_in_stock <= ?", threshold).
		Order("pv.qty_in_stock ASC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	details := make([]VariationDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, *row.toDetail())
	}
	return details, nil
}
