package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"famledger/internal/auth"
	"famledger/internal/database"
	"famledger/internal/store"
)

func setupAuthMiddleware(t *testing.T) (*auth.TokenIssuer, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return auth.NewTokenIssuer("test-secret", time.Hour), store.NewUserStore(db)
}

func TestRequireAuthNoHeader(t *testing.T) {
	issuer, users := setupAuthMiddleware(t)

	handler := RequireAuth(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/family/my-family", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	issuer, users := setupAuthMiddleware(t)

	handler := RequireAuth(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	for _, header := range []string{"Bearer", "Basic abc123", "Bearer "} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	issuer, users := setupAuthMiddleware(t)

	handler := RequireAuth(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthUnknownUser(t *testing.T) {
	issuer, users := setupAuthMiddleware(t)

	token, err := issuer.Issue(999, "ghost@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler := RequireAuth(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	issuer, users := setupAuthMiddleware(t)

	u, err := users.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := issuer.Issue(u.ID, u.Email)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotUserID int64
	handler := RequireAuth(issuer, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = auth.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != u.ID {
		t.Errorf("context user id = %d, want %d", gotUserID, u.ID)
	}
}
