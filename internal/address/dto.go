package address

import (
	"time"

	"github.com/ateliermoda/moda-backend/pkg/db/models"
	"github.com/google/uuid"
)

// AddressInput is the client payload for creating or replacing an entry.
type AddressInput struct {
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	Region     string  `json:"region" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required,iso3166_1_alpha2"`
	IsDefault  bool    `json:"is_default"`
}

// EntryDTO is one address book row as returned to clients.
type EntryDTO struct {
	ID         uuid.UUID `json:"id"`
	Line1      string    `json:"line1"`
	Line2      *string   `json:"line2,omitempty"`
	City       string    `json:"city"`
	Region     string    `json:"region"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

func entryFromModel(link *models.UserAddress) *EntryDTO {
	if link == nil || link.Address == nil {
		return nil
	}
	return &EntryDTO{
		ID:         link.ID,
		Line1:      link.Address.Line1,
		Line2:      link.Address.Line2,
		City:       link.Address.City,
		Region:     link.Address.Region,
		PostalCode: link.Address.PostalCode,
		Country:    link.Address.Country,
		IsDefault:  link.IsDefault,
		CreatedAt:  link.CreatedAt,
	}
}
