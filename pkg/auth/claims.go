package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carni-kridi/attar-backend/pkg/enums"
)

// AccessTokenPayload is the data minted into an access token. JTI doubles as
// the refresh session id; an empty JTI gets a fresh uuid.
type AccessTokenPayload struct {
	UserID        uuid.UUID
	ActiveStoreID *uuid.UUID
	Role          enums.Role
	JTI           string
}

// AccessTokenClaims is the typed JWT body.
type AccessTokenClaims struct {
	UserID        uuid.UUID  `json:"user_id"`
	ActiveStoreID *uuid.UUID `json:"active_store_id,omitempty"`
	Role          enums.Role `json:"role"`
	jwt.RegisteredClaims
}
