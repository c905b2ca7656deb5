package middleware

import (
	"net/http"
	"strings"

	"github.com/noxius/grana/internal/auth"
)

// Authenticate validates the Bearer token and stores the principal on the
// request context. Requests without a valid token are rejected; the identity
// resolver downstream still decides whether the principal maps to a user.
func Authenticate(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{Username: claims.Username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		// Browsers cannot set headers on websocket dials, so the sync
		// endpoint passes the token as a query parameter instead.
		if token := r.URL.Query().Get("token"); token != "" {
			return token, true
		}
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
