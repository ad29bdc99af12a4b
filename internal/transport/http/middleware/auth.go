package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/users"
	"hrportal/internal/transport/http/api"
)

const SessionCookie = "hrportal_session"

// PrincipalResolver loads the current profile for a token subject.
type PrincipalResolver interface {
	Principal(ctx context.Context, userID string) (*access.Principal, error)
}

// Auth attaches the principal of a valid bearer token or session cookie.
// Requests without valid credentials continue anonymously.
func Auth(secret string, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.Principal(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, users.ErrNotFound) {
					slog.Warn("principal lookup failed", "userId", claims.UserID, "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), p)))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
