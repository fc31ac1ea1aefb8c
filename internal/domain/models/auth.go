package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims represents the JWT claims issued by the identity provider.
type AccessClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"` // "authenticated" or "anon"
}

// GetOwnerID returns the account ID from the JWT subject claim.
// This is the primary identifier for the authenticated account.
func (c *AccessClaims) GetOwnerID() string {
	return c.Subject
}
