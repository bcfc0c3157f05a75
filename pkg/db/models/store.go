package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// StoreSettings is stored inline on the stores row.
type StoreSettings struct {
	Currency       string          `gorm:"column:currency;not null;default:'TND'"`
	Language       enums.Language  `gorm:"column:language;not null;default:'ar'"`
	MaxCreditLimit decimal.Decimal `gorm:"column:max_credit_limit;type:numeric(12,3);not null;default:1000"`
}

// Store is the tenant boundary every client and entry hangs off.
type Store struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Name      string        `gorm:"column:name;not null"`
	Address   string        `gorm:"column:address;not null"`
	Phone     string        `gorm:"column:phone;not null"`
	OwnerID   uuid.UUID     `gorm:"column:owner_id;type:uuid;not null;index:idx_stores_owner"`
	Settings  StoreSettings `gorm:"embedded;embeddedPrefix:settings_"`
	Active    bool          `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
