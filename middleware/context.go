package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/upb/hotel-booking-api/services/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the verified principal
	PrincipalKey contextKey = "principal"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// GetPrincipalFromContext retrieves the verified principal from context.
// It returns nil for anonymous requests.
func GetPrincipalFromContext(ctx context.Context) *token.Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if p, ok := val.(*token.Principal); ok {
			return p
		}
	}
	return nil
}

// WithPrincipal adds a verified principal to the context
func WithPrincipal(ctx context.Context, p *token.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}
