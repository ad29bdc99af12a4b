package middleware

import (
	"net/http"
	"time"

	"hrportal/internal/domain/auth"
)

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StartSession issues a token for userID and sets it as the session cookie
// read by Auth on page navigations.
func StartSession(w http.ResponseWriter, secret, userID string, ttl time.Duration, secure bool) (Session, error) {
	token, err := auth.GenerateToken(secret, userID, ttl)
	if err != nil {
		return Session{}, err
	}
	expires := time.Now().Add(ttl).UTC()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return Session{Token: token, ExpiresAt: expires}, nil
}

func EndSession(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
