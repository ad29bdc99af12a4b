package accesshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/access"
	"hrportal/internal/platform/kv"
	"hrportal/internal/transport/http/middleware"
)

func newRouter(t *testing.T, start bool) http.Handler {
	t.Helper()
	a := access.NewAuthorizer(access.NewRecordStore(kv.NewMemory()))
	if start {
		if err := a.Start(context.Background()); err != nil {
			t.Fatalf("start failed: %v", err)
		}
	}
	t.Cleanup(a.Close)
	r := chi.NewRouter()
	NewHandler(a).RegisterRoutes(r)
	return r
}

func request(method, target string, user *access.Principal) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	return req
}

func TestCheckDecisions(t *testing.T) {
	router := newRouter(t, true)
	tests := []struct {
		name         string
		path         string
		user         *access.Principal
		wantAllowed  bool
		wantRedirect string
	}{
		{name: "public", path: "/login", wantAllowed: true},
		{name: "anonymous", path: "/payroll", wantRedirect: "/login"},
		{name: "denied", path: "/payroll", user: &access.Principal{ID: "u1", Role: access.RoleUser}, wantRedirect: "/unauthorized"},
		{name: "allowed", path: "/payroll/2024", user: &access.Principal{ID: "m1", Role: access.RoleManager}, wantAllowed: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, request(http.MethodGet, "/access/check?path="+tc.path, tc.user))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var body struct {
				Data struct {
					Path     string `json:"path"`
					Allowed  bool   `json:"allowed"`
					Redirect string `json:"redirect"`
				} `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if body.Data.Allowed != tc.wantAllowed || body.Data.Redirect != tc.wantRedirect || body.Data.Path != tc.path {
				t.Fatalf("unexpected decision %+v", body.Data)
			}
		})
	}
}

func TestCheckValidatesPath(t *testing.T) {
	router := newRouter(t, true)
	for _, target := range []string{"/access/check", "/access/check?path=payroll"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, request(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestCheckBeforeLoadFails(t *testing.T) {
	router := newRouter(t, false)
	req := request(http.MethodGet, "/access/check?path=/payroll", &access.Principal{ID: "u1", Role: access.RoleUser})
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the table loads, got %d", rec.Code)
	}
}

func TestNavigationMenu(t *testing.T) {
	router := newRouter(t, true)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, request(http.MethodGet, "/navigation", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, request(http.MethodGet, "/navigation", &access.Principal{ID: "u1", Role: access.RoleUser}))
	var body struct {
		Data navigationResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Data.RoleName != "User" || len(body.Data.Items) != 4 {
		t.Fatalf("expected four entries for user, got %+v", body.Data)
	}
}
