package models

import (
	"time"

	"github.com/google/uuid"
)

// Address stores a normalized postal address shared via UserAddress links.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Line1      string    `gorm:"column:line1;not null"`
	Line2      *string   `gorm:"column:line2"`
	City       string    `gorm:"column:city;not null"`
	Region     string    `gorm:"column:region;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UserAddress links a user to an address book entry.
type UserAddress struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_user_addresses_user_address,priority:1"`
	AddressID uuid.UUID `gorm:"column:address_id;type:uuid;not null;uniqueIndex:ux_user_addresses_user_address,priority:2"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false"`
	Address   *Address  `gorm:"foreignKey:AddressID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
