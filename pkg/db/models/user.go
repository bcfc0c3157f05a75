package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// User is an authenticated actor. StoreID is nil for admins and for an
// attara who has not opened a store yet.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        *string    `gorm:"column:email;uniqueIndex:idx_users_email"`
	Phone        string     `gorm:"column:phone;not null;uniqueIndex:idx_users_phone"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         enums.Role `gorm:"column:role;not null"`
	StoreID      *uuid.UUID `gorm:"column:store_id;type:uuid;index:idx_users_store"`
	Active       bool       `gorm:"column:active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
