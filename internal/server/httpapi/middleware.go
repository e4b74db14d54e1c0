package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/jumptrack/internal/server/auth"
)

type ctxKey int

const authCtxKey ctxKey = 0

// AuthContext carries the authenticated caller through the request context.
type AuthContext struct {
	UserID string
	Email  string
}

// authFromContext returns the caller placed there by requireAuth.
func authFromContext(ctx context.Context) (*AuthContext, bool) {
	ac, ok := ctx.Value(authCtxKey).(*AuthContext)
	return ac, ok
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// requireAuth validates the bearer token and injects an AuthContext.
// Any failure is a plain 401 with no detail.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Error: "unauthorized"})
			return
		}

		claims, err := auth.ParseToken(token, s.jwtSecret)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Error: "unauthorized"})
			return
		}

		ac := &AuthContext{UserID: claims.Subject, Email: claims.Email}
		next(w, r.WithContext(context.WithValue(r.Context(), authCtxKey, ac)))
	}
}
