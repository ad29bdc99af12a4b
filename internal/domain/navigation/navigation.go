package navigation

import (
	"context"

	"hrportal/internal/domain/access"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"

	// Pages whose decision also guards the matching admin API groups.
	UsersPath = "/users"
	RolesPath = "/admin/roles"
)

type Item struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

var items = []Item{
	{Title: "Dashboard", Href: "/"},
	{Title: "Employees", Href: "/employees"},
	{Title: "Attendance", Href: "/attendance"},
	{Title: "Payroll", Href: "/payroll"},
	{Title: "Leave Management", Href: "/leave"},
	{Title: "Recruitment", Href: "/recruitment"},
	{Title: "Projects", Href: "/projects"},
	{Title: "Performance", Href: "/performance"},
	{Title: "Training", Href: "/training"},
	{Title: "Manpower", Href: "/manpower"},
	{Title: "Reports", Href: "/reports"},
	{Title: "Users", Href: "/users"},
	{Title: "Roles", Href: "/admin/roles"},
}

// Items returns the sidebar entries in display order.
func Items() []Item {
	return append([]Item(nil), items...)
}

type Decider interface {
	Allowed(p *access.Principal, path string) bool
}

// Menu returns the entries p may open. Unauthenticated callers get none.
func Menu(d Decider, p *access.Principal) []Item {
	if p == nil {
		return []Item{}
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if d.Allowed(p, item.Href) {
			out = append(out, item)
		}
	}
	return out
}

type Checker interface {
	Check(ctx context.Context, p *access.Principal, path string) (bool, error)
}

type Decision struct {
	Allow    bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// Guard decides a page navigation: public paths pass, unauthenticated
// callers go to the login page and denied principals to the unauthorized
// page.
func Guard(ctx context.Context, c Checker, p *access.Principal, path string) (Decision, error) {
	if access.IsPublicPath(path) {
		return Decision{Allow: true}, nil
	}
	if p == nil {
		return Decision{Redirect: LoginPath}, nil
	}
	allowed, err := c.Check(ctx, p, path)
	if err != nil {
		return Decision{}, err
	}
	if !allowed {
		return Decision{Redirect: UnauthorizedPath}, nil
	}
	return Decision{Allow: true}, nil
}
