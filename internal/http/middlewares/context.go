package middlewares

import (
	"context"

	"github.com/vantadev/readiq/internal/token"
)

type ctxKey string

const (
	// ctxClaimsKey guarda los claims del access token validado
	ctxClaimsKey ctxKey = "claims"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta los claims en el contexto.
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// GetClaims obtiene los claims del contexto.
// Retorna nil si no hay claims (token no validado o middleware no aplicado).
func GetClaims(ctx context.Context) *token.Claims {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if c, ok := v.(*token.Claims); ok {
			return c
		}
	}
	return nil
}

// GetUserID obtiene el user ID del contexto. Retorna "" si no hay.
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// setRequestID inyecta el request ID en el contexto (interno).
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto. Retorna "" si no hay.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
