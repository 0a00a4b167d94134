package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const TokenTypeAccess = "access"

// TokenClaims is the identity resolved from a bearer credential
type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// ExternalIdentity is the profile returned by an OAuth provider after code exchange
type ExternalIdentity struct {
	Email         string
	Name          string
	EmailVerified bool
}
