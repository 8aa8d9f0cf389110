package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	ownerIDKey       contextKey = "ownerID"
	ownerVerifiedKey contextKey = "ownerVerified"
)

// WithOwnerID adds the authenticated owner to the request context
func WithOwnerID(r *http.Request, ownerID string) *http.Request {
	ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
	return r.WithContext(ctx)
}

// WithVerifiedOwnerID adds an owner taken from a verified token
func WithVerifiedOwnerID(r *http.Request, ownerID string) *http.Request {
	ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
	ctx = context.WithValue(ctx, ownerVerifiedKey, true)
	return r.WithContext(ctx)
}

// IsOwnerVerified reports whether the owner came from a verified token
func IsOwnerVerified(r *http.Request) bool {
	verified, _ := r.Context().Value(ownerVerifiedKey).(bool)
	return verified
}

// GetOwnerID retrieves the owner from context, returns empty string if not found
func GetOwnerID(r *http.Request) string {
	ownerID, _ := r.Context().Value(ownerIDKey).(string)
	return ownerID
}
