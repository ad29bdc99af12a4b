package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"hrportal/internal/domain/navigation"
	"hrportal/internal/transport/http/api"
)

// RequirePage protects an API group with the decision for a dashboard page,
// so the endpoints behind a page follow the same role table as the page.
func RequirePage(checker navigation.Checker, pagePath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			allowed, err := checker.Check(r.Context(), user, pagePath)
			if err != nil {
				api.Fail(w, http.StatusServiceUnavailable, "permissions_unavailable", "page permissions are still loading", reqID)
				return
			}
			if !allowed {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PageGuard redirects page navigations the principal may not open. Asset
// requests (paths with a file extension) pass through untouched.
func PageGuard(checker navigation.Checker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if (r.Method != http.MethodGet && r.Method != http.MethodHead) || isAssetPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			user, _ := GetUser(r.Context())
			decision, err := navigation.Guard(r.Context(), checker, user, r.URL.Path)
			if err != nil {
				slog.Warn("page guard check failed", "path", r.URL.Path, "err", err)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			if !decision.Allow {
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isAssetPath(path string) bool {
	last := path[strings.LastIndex(path, "/")+1:]
	if last == "." || last == ".." {
		return false
	}
	return strings.Contains(last, ".")
}
