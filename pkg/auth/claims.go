package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	SupplierID *uuid.UUID
	Role       enums.UserRole
	Phone      string
	Email      string
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to portal clients.
type AccessTokenClaims struct {
	UserID     uuid.UUID      `json:"user_id"`
	SupplierID *uuid.UUID     `json:"supplier_id,omitempty"`
	Role       enums.UserRole `json:"role"`
	Phone      string         `json:"phone,omitempty"`
	Email      string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}
