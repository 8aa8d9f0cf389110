package auth

import "visualexpr/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification.
// The auth middleware only depends on this interface, so tests can use a fake.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
