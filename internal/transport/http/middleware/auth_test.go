package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/users"
)

type stubResolver map[string]*access.Principal

func (s stubResolver) Principal(_ context.Context, id string) (*access.Principal, error) {
	p, ok := s[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return p, nil
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	resolver := stubResolver{"u1": {ID: "u1", Role: access.RoleManager}}

	for _, useCookie := range []bool{false, true} {
		called := false
		handler := Auth(secret, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			user, ok := GetUser(r.Context())
			if !ok {
				t.Fatal("expected user in context")
			}
			if user.ID != "u1" || user.Role != access.RoleManager {
				t.Fatalf("unexpected user: %+v", user)
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if useCookie {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if !called {
			t.Fatal("expected handler to run")
		}
	}
}

func TestAuthMiddlewareIgnoresUnknownOrMissingCredentials(t *testing.T) {
	secret := "test-secret"
	orphan, err := auth.GenerateToken(secret, "deleted-user", time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing"},
		{name: "malformed", header: "Token abc"},
		{name: "bad token", header: "Bearer not-a-token"},
		{name: "unknown user", header: "Bearer " + orphan},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(secret, stubResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := GetUser(r.Context()); ok {
					t.Fatal("did not expect user in context")
				}
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &access.Principal{ID: "u1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
