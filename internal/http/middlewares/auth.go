package middlewares

import (
	"net/http"

	httperrors "github.com/vantadev/readiq/internal/http/errors"
	"github.com/vantadev/readiq/internal/store/core"
	"github.com/vantadev/readiq/internal/token"
)

// RequireAuth exige un access token válido en la cookie de acceso.
// Si valida, los claims quedan disponibles en el contexto del request.
func RequireAuth(tokens *token.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := token.FromRequest(r, token.KindAccess)
			if raw == "" {
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}

			claims := tokens.VerifyAccess(raw)
			if claims == nil {
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole exige que el usuario autenticado tenga alguno de los roles dados.
// Debe montarse después de RequireAuth.
func RequireRole(roles ...core.Role) Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[string(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				httperrors.WriteError(w, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
