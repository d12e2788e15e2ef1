package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse returns the bearer token with the authenticated identity.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	User      *User  `json:"user"`
}

// JWTClaims embeds the identity and scoping fields used by the
// authorization middleware and the report projections.
type JWTClaims struct {
	UserID   string  `json:"uid"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	LabID    *string `json:"labId,omitempty"`
	DoctorID *string `json:"doctorId,omitempty"`
	jwt.RegisteredClaims
}
