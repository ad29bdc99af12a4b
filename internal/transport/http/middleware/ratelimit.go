package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"hrportal/internal/transport/http/api"
)

// RateLimit throttles per authenticated principal, falling back to the
// client IP for anonymous requests.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(actorOrIPKey),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// AuthRateLimit is the stricter limiter for credential endpoints. It
// applies a quarter of limit both per client IP and per submitted email.
func AuthRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	authLimit := max(limit/4, 1)
	byIP := httprate.Limit(authLimit, window,
		httprate.WithKeyFuncs(clientIPKey),
		httprate.WithLimitHandler(limitExceeded),
	)
	byEmail := httprate.Limit(authLimit, window,
		httprate.WithKeyFuncs(emailOrIPKey("email")),
		httprate.WithLimitHandler(limitExceeded),
	)
	return func(next http.Handler) http.Handler {
		return byIP(byEmail(next))
	}
}

// ClientIP returns the first X-Forwarded-For entry or the remote host.
func ClientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if value := strings.TrimSpace(strings.Split(fwd, ",")[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	slog.Warn("rate limit exceeded",
		"path", r.URL.Path,
		"method", r.Method,
		"ip", ClientIP(r),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
}

func clientIPKey(r *http.Request) (string, error) {
	return "ip:" + ClientIP(r), nil
}

func actorOrIPKey(r *http.Request) (string, error) {
	if user, ok := GetUser(r.Context()); ok && user.ID != "" {
		return "user:" + user.ID, nil
	}
	return clientIPKey(r)
}

func emailOrIPKey(field string) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		email := extractJSONField(r, field)
		if email == "" {
			return clientIPKey(r)
		}
		return "email:" + strings.ToLower(email), nil
	}
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(contentType, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
