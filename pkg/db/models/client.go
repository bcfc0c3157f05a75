package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client is a store's customer. Balances are never stored on the row.
type Client struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StoreID         uuid.UUID       `gorm:"column:store_id;type:uuid;not null;index:idx_clients_store_name,priority:1;uniqueIndex:idx_clients_phone_store,priority:2"`
	Name            string          `gorm:"column:name;not null;index:idx_clients_store_name,priority:2"`
	Phone           string          `gorm:"column:phone;not null;uniqueIndex:idx_clients_phone_store,priority:1"`
	Email           *string         `gorm:"column:email"`
	Address         *string         `gorm:"column:address"`
	Notes           *string         `gorm:"column:notes"`
	CreditLimit     decimal.Decimal `gorm:"column:credit_limit;type:numeric(12,3);not null;default:500"`
	LastTransaction *time.Time      `gorm:"column:last_transaction"`
	Active          bool            `gorm:"column:active;not null;default:true"`
	CreatedBy       *uuid.UUID      `gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
