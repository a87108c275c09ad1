package address

import (
	"context"
	"errors"

	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists address book entries. Every operation is scoped by
// user id so one user can never see or touch another's entries.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateEntry inserts the address and its link row.
func (r *Repository) CreateEntry(ctx context.Context, userID uuid.UUID, addr *models.Address, isDefault bool) (*models.UserAddress, error) {
	addr.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(addr).Error; err != nil {
		return nil, err
	}

	link := &models.UserAddress{
		ID:        uuid.New(),
		UserID:    userID,
		AddressID: addr.ID,
		IsDefault: isDefault,
		Address:   addr,
	}
	if err := r.db.WithContext(ctx).Omit("Address").Create(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// ListEntries returns the user's address book, default first.
func (r *Repository) ListEntries(ctx context.Context, userID uuid.UUID) ([]models.UserAddress, error) {
	var links []models.UserAddress
	err := r.db.WithContext(ctx).
		Preload("Address").
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// GetEntry loads one entry belonging to the user.
func (r *Repository) GetEntry(ctx context.Context, userID, entryID uuid.UUID) (*models.UserAddress, error) {
	var link models.UserAddress
	err := r.db.WithContext(ctx).
		Preload("Address").
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// ClearDefault unsets is_default on all of the user's entries.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		UpdateColumn("is_default", false).Error
}

// SetDefault marks the entry as the user's default. Returns rows affected.
func (r *Repository) SetDefault(ctx context.Context, userID, entryID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.UserAddress{}).
		Where("id = ? AND user_id = ?", entryID, userID).
		UpdateColumn("is_default", true)
	return res.RowsAffected, res.Error
}

// DeleteEntry removes the link and its address row. Returns rows affected
// for the link delete.
func (r *Repository) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) (int64, error) {
	var link models.UserAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&models.UserAddress{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		if err := r.db.WithContext(ctx).Where("id = ?", link.AddressID).Delete(&models.Address{}).Error; err != nil {
			return res.RowsAffected, err
		}
	}
	return res.RowsAffected, nil
}
