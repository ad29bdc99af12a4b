package access

import "fmt"

// ToggleRole adds role to pp when absent and removes it when present. A
// rejected change returns pp unchanged together with the reason:
// RoleSuperAdmin can never be removed, and a page never loses its last role.
func ToggleRole(pp PagePermission, role string) (PagePermission, error) {
	role = NormalizeRole(role)
	if !ValidRole(role) {
		return pp, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == RoleSuperAdmin {
		return pp, ErrSuperAdminLocked
	}

	next := pp.clone()
	if !pp.Has(role) {
		next.Roles = append(next.Roles, role)
		sortRoles(next.Roles)
		return next, nil
	}

	kept := next.Roles[:0]
	for _, candidate := range next.Roles {
		if NormalizeRole(candidate) != role {
			kept = append(kept, candidate)
		}
	}
	if len(kept) == 0 {
		return pp, ErrLastRole
	}
	next.Roles = kept
	return next, nil
}

// Draft stages role edits against a table until they are committed. A Draft
// is not safe for concurrent use; DraftRegistry serializes access.
type Draft struct {
	table Table
	dirty bool
}

func NewDraft(t Table) *Draft {
	return &Draft{table: WithCatalogue(t)}
}

func (d *Draft) Toggle(pageID, role string) (PagePermission, error) {
	pp, ok := d.table[pageID]
	if !ok {
		return PagePermission{}, fmt.Errorf("%w: %q", ErrPageNotFound, pageID)
	}
	next, err := ToggleRole(pp, role)
	if err != nil {
		return pp.clone(), err
	}
	d.table[pageID] = next
	d.dirty = true
	return next.clone(), nil
}

func (d *Draft) Table() Table {
	return d.table.Clone()
}

// Dirty reports unsaved changes.
func (d *Draft) Dirty() bool {
	return d.dirty
}

// Reset replaces the staged table and drops unsaved changes.
func (d *Draft) Reset(t Table) {
	d.table = WithCatalogue(t)
	d.dirty = false
}

func (d *Draft) MarkSaved() {
	d.dirty = false
}
