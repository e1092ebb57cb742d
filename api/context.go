package api

import (
	"context"

	"github.com/rpupo63/collage-backend/auth"
)

type keyType string

const (
	adminClaimsKey keyType = "adminClaims"
	requestIDKey   keyType = "requestID"
)

// ctxWithAdmin adds verified admin claims to the context
func ctxWithAdmin(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, adminClaimsKey, claims)
}

// ctxGetAdmin retrieves admin claims from the context, nil when absent
func ctxGetAdmin(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(adminClaimsKey).(*auth.Claims)
	return claims
}

func ctxWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func ctxGetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}
