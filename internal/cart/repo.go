package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/ateliermoda/moda-backend/internal/identity"
	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetOrCreate returns the owner's cart, creating it if absent. The insert
// uses ON CONFLICT DO NOTHING against the partial owner indexes so two
// concurrent first requests converge on a single row.
func (r *Repository) GetOrCreate(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	cart, err := ownerCartRow(owner)
	if err != nil {
		return nil, err
	}
	cart.ID = uuid.New()

	conflictColumns := []clause.Column{{Name: "user_id"}}
	if owner.Kind() == identity.KindGuest {
		conflictColumns = []clause.Column{{Name: "session_key"}}
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   conflictColumns,
			DoNothing: true,
		}).
		Create(cart).Error
	if err != nil {
		return nil, err
	}

	return r.FindByOwner(ctx, owner)
}

// FindByOwner loads the owner's cart with its lines, or gorm.ErrRecordNotFound.
func (r *Repository) FindByOwner(ctx context.Context, owner identity.Identity) (*models.Cart, error) {
	qb := r.db.WithContext(ctx).Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})

	var cart models.Cart
	switch owner.Kind() {
	case identity.KindUser:
		id, _ := owner.UserID()
		qb = qb.Where("user_id = ?", id)
	case identity.KindGuest:
		key, _ := owner.SessionKey()
		qb = qb.Where("session_key = ?", key)
	default:
		return nil, fmt.Errorf("owner identity is required")
	}

	if err := qb.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpsertLineIncrement inserts a line or bumps its quantity atomically. The
// single-statement upsert keeps concurrent adds from losing increments.
func (r *Repository) UpsertLineIncrement(ctx context.Context, cartID, variationID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	line := models.CartLine{
		ID:          uuid.New(),
		CartID:      cartID,
		VariationID: variationID,
		Quantity:    qty,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "variation_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_lines.quantity + excluded.quantity"),
			}),
		}).
		Create(&line).Error
	if err != nil {
		return err
	}
	return r.touchCart(ctx, cartID)
}

// GetLine returns the line for the variation inside the cart.
func (r *Repository) GetLine(ctx context.Context, cartID, variationID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND variation_id = ?", cartID, variationID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// SetLineQuantity overwrites the line quantity. The affected row count tells
// callers whether the line existed.
func (r *Repository) SetLineQuantity(ctx context.Context, cartID, variationID uuid.UUID, qty int) (int64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ? AND variation_id = ?", cartID, variationID).
		Update("quantity", qty)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		if err := r.touchCart(ctx, cartID); err != nil {
			return result.RowsAffected, err
		}
	}
	return result.RowsAffected, nil
}

// DeleteLine removes the variation's line from the cart.
func (r *Repository) DeleteLine(ctx context.Context, cartID, variationID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND variation_id = ?", cartID, variationID).
		Delete(&models.CartLine{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		if err := r.touchCart(ctx, cartID); err != nil {
			return result.RowsAffected, err
		}
	}
	return result.RowsAffected, nil
}

// touchCart bumps the parent cart's updated_at so the cart row reflects the
// latest line mutation.
func (r *Repository) touchCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

// ListLines returns the cart's lines in insertion order.
func (r *Repository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ReassignOwner flips a guest cart to the provided user in place.
func (r *Repository) ReassignOwner(ctx context.Context, cartID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"user_id":     userID,
			"session_key": nil,
		}).Error
}

// DeleteCart removes the cart; lines cascade.
func (r *Repository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", cartID).Delete(&models.Cart{}).Error
}

func ownerCartRow(owner identity.Identity) (*models.Cart, error) {
	switch owner.Kind() {
	case identity.KindUser:
		id, _ := owner.UserID()
		return &models.Cart{UserID: &id}, nil
	case identity.KindGuest:
		key, _ := owner.SessionKey()
		return &models.Cart{SessionKey: &key}, nil
	default:
		return nil, fmt.Errorf("owner identity is required")
	}
}
