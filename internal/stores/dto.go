package stores

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// DefaultMaxCreditLimit caps client credit when a store sets none.
var DefaultMaxCreditLimit = decimal.NewFromInt(1000)

// SettingsDTO is the per-store configuration.
type SettingsDTO struct {
	Currency       string          `json:"currency"`
	Language       enums.Language  `json:"language"`
	MaxCreditLimit decimal.Decimal `json:"maxCreditLimit"`
}

// StoreDTO exposes a store in API responses.
type StoreDTO struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Address   string      `json:"address"`
	Phone     string      `json:"phone"`
	OwnerID   uuid.UUID   `json:"ownerId"`
	Settings  SettingsDTO `json:"settings"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SettingsInput carries a partial settings change. Nil fields keep their
// current value.
type SettingsInput struct {
	Currency       *string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Language       *enums.Language  `json:"language,omitempty" validate:"omitempty,oneof=ar fr en"`
	MaxCreditLimit *decimal.Decimal `json:"maxCreditLimit,omitempty"`
}

// CreateInput is the body of a store creation.
type CreateInput struct {
	Name     string         `json:"name" validate:"required,min=2,max=120"`
	Address  string         `json:"address" validate:"required,min=5,max=255"`
	Phone    string         `json:"phone" validate:"required,min=8,max=20"`
	Settings *SettingsInput `json:"settings,omitempty"`
}

// UpdateInput is a partial store change.
type UpdateInput struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Address  *string        `json:"address,omitempty" validate:"omitempty,min=5,max=255"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,min=8,max=20"`
	Settings *SettingsInput `json:"settings,omitempty"`
}

// ListQuery filters the store listing. Search only applies to admins.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

// ListFilter narrows repository listings.
type ListFilter struct {
	OwnerID *uuid.UUID
	StoreID *uuid.UUID
	Search  string
}

func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		Phone:     m.Phone,
		OwnerID:   m.OwnerID,
		Settings:  settingsFromModel(m.Settings),
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func settingsFromModel(s models.StoreSettings) SettingsDTO {
	return SettingsDTO{
		Currency:       s.Currency,
		Language:       s.Language,
		MaxCreditLimit: s.MaxCreditLimit,
	}
}

func defaultSettings() models.StoreSettings {
	return models.StoreSettings{
		Currency:       enums.DefaultCurrency,
		Language:       enums.LanguageArabic,
		MaxCreditLimit: DefaultMaxCreditLimit,
	}
}
