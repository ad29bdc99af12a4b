package access

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Principal is the authenticated actor a decision is made for.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	Department  string `json:"department,omitempty"`
}

func (p *Principal) IsSuperAdmin() bool {
	return p != nil && NormalizeRole(p.Role) == RoleSuperAdmin
}

type PagePermission struct {
	ID    string   `json:"-"`
	Path  string   `json:"path"`
	Roles []string `json:"roles"`
}

// Has reports whether role may view the page. RoleSuperAdmin is a member of
// every roles set, whatever is stored.
func (pp PagePermission) Has(role string) bool {
	role = NormalizeRole(role)
	if role == RoleSuperAdmin {
		return true
	}
	for _, candidate := range pp.Roles {
		if strings.TrimSpace(candidate) != "" && NormalizeRole(candidate) == role {
			return true
		}
	}
	return false
}

func (pp PagePermission) clone() PagePermission {
	out := pp
	out.Roles = append([]string(nil), pp.Roles...)
	return out
}

// Table maps page ids to their permissions. Tables are treated as immutable
// once published; edits go through Clone.
type Table map[string]PagePermission

func (t Table) Clone() Table {
	out := make(Table, len(t))
	for id, pp := range t {
		out[id] = pp.clone()
	}
	return out
}

// IDs returns the page ids in lexical order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validate rejects tables that cannot be resolved deterministically: empty
// ids or paths, paths without a leading slash, empty roles and two pages
// registered under the same path.
func (t Table) Validate() error {
	byPath := make(map[string]string, len(t))
	for _, id := range t.IDs() {
		pp := t[id]
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty page id", ErrInvalidTable)
		}
		if !strings.HasPrefix(pp.Path, "/") {
			return fmt.Errorf("%w: page %q path %q must start with /", ErrInvalidTable, id, pp.Path)
		}
		if len(pp.Roles) == 0 {
			return fmt.Errorf("%w: page %q has no roles", ErrInvalidTable, id)
		}
		if other, ok := byPath[pp.Path]; ok {
			return fmt.Errorf("%w: %q and %q share path %q", ErrAmbiguousPath, other, id, pp.Path)
		}
		byPath[pp.Path] = id
	}
	return nil
}

// Equivalent compares two tables by ids, paths and role set membership,
// ignoring role order, case and duplicates.
func (t Table) Equivalent(other Table) bool {
	if len(t) != len(other) {
		return false
	}
	for id, pp := range t {
		op, ok := other[id]
		if !ok || pp.Path != op.Path {
			return false
		}
		if !sameRoleSet(pp.Roles, op.Roles) {
			return false
		}
	}
	return true
}

// sameRoleSet treats RoleSuperAdmin as present on both sides.
func sameRoleSet(a, b []string) bool {
	set := map[string]struct{}{RoleSuperAdmin: {}}
	for _, role := range a {
		if strings.TrimSpace(role) != "" {
			set[NormalizeRole(role)] = struct{}{}
		}
	}
	other := map[string]struct{}{RoleSuperAdmin: {}}
	for _, role := range b {
		if strings.TrimSpace(role) == "" {
			continue
		}
		normalized := NormalizeRole(role)
		if _, ok := set[normalized]; !ok {
			return false
		}
		other[normalized] = struct{}{}
	}
	return len(set) == len(other)
}

// EncodeTable renders the store wire form: {pageId: {path, roles}}.
func EncodeTable(t Table) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTable(raw []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode permission table: %w", err)
	}
	if t == nil {
		t = Table{}
	}
	for id, pp := range t {
		pp.ID = id
		t[id] = pp
	}
	return t, nil
}
