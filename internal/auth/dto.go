package auth

import (
	"github.com/google/uuid"

	"github.com/carni-kridi/attar-backend/internal/users"
	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// LoginRequest identifies the user by email or phone.
type LoginRequest struct {
	Email    *string `json:"email,omitempty" validate:"required_without=Phone,omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"required_without=Email,omitempty,min=8"`
	Password string  `json:"password" validate:"required"`
}

// RegisterRequest creates a user. Workers and clients join an existing store.
type RegisterRequest struct {
	Name     string     `json:"name" validate:"required,min=2,max=120"`
	Email    *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string     `json:"phone" validate:"required,min=8,max=20"`
	Password string     `json:"password" validate:"required,min=6,max=128"`
	Role     enums.Role `json:"role" validate:"required,oneof=attara worker client"`
	StoreID  *uuid.UUID `json:"storeId,omitempty"`
}

// RefreshRequest pairs the last access token, possibly expired, with its
// refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SwitchStoreRequest selects the store subsequent requests act on.
type SwitchStoreRequest struct {
	StoreID uuid.UUID `json:"storeId" validate:"required"`
}

// TokenResponse is returned by every flow that issues tokens.
type TokenResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
	User         *users.UserDTO `json:"user"`
}
