package access

import "strings"

// Page is one entry of the application's page catalogue.
type Page struct {
	ID    string `json:"id"`
	Path  string `json:"path"`
	Title string `json:"title"`
}

var systemPages = []Page{
	{ID: "dashboard", Path: "/", Title: "Dashboard"},
	{ID: "users", Path: "/users", Title: "User Management"},
	{ID: "employees", Path: "/employees", Title: "Employee Management"},
	{ID: "attendance", Path: "/attendance", Title: "Attendance & Time"},
	{ID: "payroll", Path: "/payroll", Title: "Payroll"},
	{ID: "leave", Path: "/leave", Title: "Leave Management"},
	{ID: "recruitment", Path: "/recruitment", Title: "Recruitment"},
	{ID: "training", Path: "/training", Title: "Training & Development"},
	{ID: "performance", Path: "/performance", Title: "Performance Evaluation"},
	{ID: "manpower", Path: "/manpower", Title: "Manpower Management"},
	{ID: "projects", Path: "/projects", Title: "Project Assignment"},
	{ID: "reports", Path: "/reports", Title: "Reports & Analytics"},
	{ID: "admin/roles", Path: "/admin/roles", Title: "Role Management"},
}

var (
	everyone    = []string{RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin}
	managers    = []string{RoleManager, RoleAdmin, RoleSuperAdmin}
	adminsOnly  = []string{RoleAdmin, RoleSuperAdmin}
	defaultRole = map[string][]string{
		"dashboard":   everyone,
		"users":       adminsOnly,
		"employees":   everyone,
		"attendance":  everyone,
		"payroll":     managers,
		"leave":       everyone,
		"recruitment": managers,
		"training":    managers,
		"performance": managers,
		"manpower":    managers,
		"projects":    managers,
		"reports":     managers,
		"admin/roles": adminsOnly,
	}
)

func SystemPages() []Page {
	return append([]Page(nil), systemPages...)
}

// PageTitle returns the catalogue title for id, falling back to the id.
func PageTitle(id string) string {
	for _, page := range systemPages {
		if page.ID == id {
			return page.Title
		}
	}
	return id
}

// DefaultTable is used when the store holds no table yet.
func DefaultTable() Table {
	t := make(Table, len(systemPages))
	for _, page := range systemPages {
		t[page.ID] = PagePermission{
			ID:    page.ID,
			Path:  page.Path,
			Roles: append([]string(nil), defaultRole[page.ID]...),
		}
	}
	return t
}

// Normalize cleans a stored table without changing its decisions: ids are
// copied from keys, catalogue pages missing a path get the catalogue path,
// role strings are normalized, de-duplicated and privilege-ordered, and
// RoleSuperAdmin is made explicit.
func Normalize(t Table) Table {
	out := make(Table, len(t))
	for id, pp := range t {
		pp.ID = id
		if strings.TrimSpace(pp.Path) == "" {
			for _, page := range systemPages {
				if page.ID == id {
					pp.Path = page.Path
				}
			}
		}
		pp.Roles = normalizeRoles(pp.Roles)
		out[id] = pp
	}
	return out
}

// WithCatalogue returns t with every catalogue page present. Pages missing
// from t are granted to admins only, which is what the role management
// screen shows for a page nobody configured yet.
func WithCatalogue(t Table) Table {
	out := Normalize(t)
	for _, page := range systemPages {
		if _, ok := out[page.ID]; ok {
			continue
		}
		out[page.ID] = PagePermission{
			ID:    page.ID,
			Path:  page.Path,
			Roles: append([]string(nil), adminsOnly...),
		}
	}
	return out
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles)+1)
	out := make([]string, 0, len(roles)+1)
	for _, role := range roles {
		if strings.TrimSpace(role) == "" {
			continue
		}
		normalized := NormalizeRole(role)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if _, ok := seen[RoleSuperAdmin]; !ok {
		out = append(out, RoleSuperAdmin)
	}
	sortRoles(out)
	return out
}
