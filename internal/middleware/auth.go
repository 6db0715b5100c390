package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"famledger/internal/auth"
	"famledger/internal/store"
)

// RequireAuth validates the Authorization bearer token and populates
// AuthContext. The user behind the token must still exist.
func RequireAuth(issuer *auth.TokenIssuer, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "authorization required")
				return
			}

			claims, err := issuer.Parse(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			user, err := users.GetByID(claims.UserID)
			if err != nil || user == nil {
				unauthorized(w, "unknown user")
				return
			}

			ac := auth.AuthContext{
				UserID: user.ID,
				Email:  user.Email,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
