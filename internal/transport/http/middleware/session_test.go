package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrportal/internal/domain/auth"
)

func TestStartSessionSetsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	session, err := StartSession(rec, "secret", "u-1", time.Hour, true)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	claims, err := auth.ParseToken("secret", session.Token)
	if err != nil || claims.UserID != "u-1" {
		t.Fatalf("expected token for u-1, got %+v err=%v", claims, err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookie || c.Value != session.Token || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if time.Until(session.ExpiresAt) <= 0 {
		t.Fatal("expected expiry in the future")
	}
}

func TestEndSessionExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	EndSession(rec, false)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}
