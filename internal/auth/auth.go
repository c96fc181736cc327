package auth

import (
	"net/http"
	"strings"

	"github.com/educheia/educheia/internal/httputil"
)

// Verifier checks bearer tokens issued by the identity provider.
type Verifier struct {
	jwtSecret string
}

func NewVerifier(jwtSecret string) *Verifier {
	return &Verifier{jwtSecret: jwtSecret}
}

func (v *Verifier) identify(r *http.Request) (Identity, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{}, "authorization header required"
	}

	tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return Identity{}, "invalid authorization header format"
	}

	claims, err := ValidateToken(v.jwtSecret, tokenStr)
	if err != nil {
		return Identity{}, "invalid token"
	}

	if claims.TokenType != "access" {
		return Identity{}, "invalid token type"
	}
	return IdentityFromClaims(claims), ""
}

// Middleware rejects requests without a valid access token.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, problem := v.identify(r)
		if problem != "" {
			httputil.WriteError(w, http.StatusUnauthorized, problem)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through. A malformed token is still rejected.
func (v *Verifier) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, problem := v.identify(r)
		if problem != "" {
			httputil.WriteError(w, http.StatusUnauthorized, problem)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
