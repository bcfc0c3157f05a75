package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carni-kridi/attar-backend/pkg/db/models"
	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Email       *string    `json:"email,omitempty"`
	Phone       string     `json:"phone"`
	Role        enums.Role `json:"role"`
	StoreID     *uuid.UUID `json:"storeId,omitempty"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateUserDTO holds what the repository needs to persist a user.
type CreateUserDTO struct {
	Name         string
	Email        *string
	Phone        string
	PasswordHash string
	Role         enums.Role
	StoreID      *uuid.UUID
}

// UpdateRoleInput is the body of a role change.
type UpdateRoleInput struct {
	Role enums.Role `json:"role" validate:"required,oneof=worker client"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		StoreID:     u.StoreID,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         strings.TrimSpace(c.Name),
		Email:        NormalizeEmail(c.Email),
		Phone:        strings.TrimSpace(c.Phone),
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		StoreID:      c.StoreID,
		Active:       true,
	}
}

// NormalizeEmail lowercases and trims; blank becomes nil.
func NormalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*email))
	if v == "" {
		return nil
	}
	return &v
}
