package access

import (
	pathpkg "path"
	"strings"
)

var publicPaths = []string{"/login", "/signup", "/register", "/unauthorized", "/first-signup"}

// IsPublicPath reports whether path is reachable without a principal.
// Public prefixes match on segment boundaries, so "/login/reset" is public
// and "/loginx" is not. Dot segments are resolved first.
func IsPublicPath(path string) bool {
	path = cleanPath(path)
	for _, public := range publicPaths {
		if hasPathPrefix(path, public) {
			return true
		}
	}
	return false
}

// ResolvePageID maps a URL path to the page it belongs to. An exact path
// match wins over a prefix match; among prefixes the longest one wins, and
// "/" only ever matches exactly. Pages sharing a path resolve to the
// lexically smallest id.
func ResolvePageID(t Table, path string) (string, bool) {
	path = cleanPath(path)

	exact := ""
	for id, pp := range t {
		if cleanPath(pp.Path) == path && (exact == "" || id < exact) {
			exact = id
		}
	}
	if exact != "" {
		return exact, true
	}

	best, bestLen := "", 0
	for id, pp := range t {
		page := cleanPath(pp.Path)
		if page == "/" || !hasPathPrefix(path, page) {
			continue
		}
		n := len(page)
		if n > bestLen || (n == bestLen && id < best) {
			best, bestLen = id, n
		}
	}
	return best, best != ""
}

// Allowed is the authorization decision over a table snapshot. Public paths
// are always allowed, a nil principal is denied everywhere else, super
// admins are allowed everywhere, and unresolved paths are denied except the
// dashboard root.
func Allowed(t Table, p *Principal, path string) bool {
	path = cleanPath(path)
	if IsPublicPath(path) {
		return true
	}
	if p == nil {
		return false
	}
	if p.IsSuperAdmin() {
		return true
	}
	id, ok := ResolvePageID(t, path)
	if !ok {
		return path == "/"
	}
	return t[id].Has(p.Role)
}

// hasPathPrefix matches prefix on a segment boundary: "/projects" matches
// "/projects" and "/projects/7" but not "/projectsX".
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return path[len(prefix)] == '/'
}

// cleanPath drops the query and fragment and resolves dot segments, so
// "/login/../payroll" is judged as "/payroll".
func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return pathpkg.Clean("/" + p)
}
