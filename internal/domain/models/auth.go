package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the part of a bearer token the server relies on.
// The subject identifies the workspace owner.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetOwnerID returns the owner ID from the JWT subject claim.
func (c *Claims) GetOwnerID() string {
	return c.Subject
}
