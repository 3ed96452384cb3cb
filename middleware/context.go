package middleware

import (
	"context"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/twy/backoffice/cognito"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
)

// GetRequestIDFromContext retrieves the request ID assigned by the router
func GetRequestIDFromContext(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}

// GetClaimsFromContext retrieves JWT claims from context
func GetClaimsFromContext(ctx context.Context) *cognito.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*cognito.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds JWT claims to the context
func WithClaims(ctx context.Context, claims *cognito.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
