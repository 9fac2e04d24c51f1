package auth

import (
	"context"
	"net/http"

	"Marketplace/pkg/kit"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Principal is the authenticated caller as carried by the bearer token.
type Principal struct {
	ID   string
	Name string
	Role string
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// RequireJWT rejects requests without a valid bearer token.
func RequireJWT(tm *TokenMaker) func(http.Handler) http.Handler {
	return bearer(tm, true)
}

// OptionalJWT attaches the principal when a valid token is present and lets
// anonymous requests through. A malformed or expired token is still rejected
// so clients notice they have been logged out.
func OptionalJWT(tm *TokenMaker) func(http.Handler) http.Handler {
	return bearer(tm, false)
}

func bearer(tm *TokenMaker, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				if required {
					kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.Parse(tok)
			if err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{ID: claims.UserID, Name: claims.Name, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
