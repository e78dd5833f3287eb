package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims are the claims carried by an access token.
type TokenClaims struct {
	Type        string `json:"type"`
	Login       string `json:"login"`
	Name        string `json:"name"`
	Tier        Tier   `json:"tier"`
	AllowedUnit string `json:"allowed_unit,omitempty"`
	jwt.RegisteredClaims
}
