package access

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func TestToggleRoleSymmetry(t *testing.T) {
	pp := DefaultTable()["dashboard"]
	pp.Roles = []string{RoleUser, RoleAdmin, RoleSuperAdmin}

	added, err := ToggleRole(pp, RoleManager)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{RoleUser, RoleManager, RoleAdmin, RoleSuperAdmin}
	if !reflect.DeepEqual(added.Roles, want) {
		t.Fatalf("expected %v, got %v", want, added.Roles)
	}

	removed, err := ToggleRole(added, RoleManager)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(removed.Roles, pp.Roles) {
		t.Fatalf("expected %v, got %v", pp.Roles, removed.Roles)
	}
}

func TestToggleRoleSuperAdminIsNoop(t *testing.T) {
	for _, roles := range [][]string{
		{RoleAdmin, RoleSuperAdmin},
		{RoleAdmin},
	} {
		pp := PagePermission{ID: "users", Path: "/users", Roles: roles}
		got, err := ToggleRole(pp, RoleSuperAdmin)
		if !errors.Is(err, ErrSuperAdminLocked) {
			t.Fatalf("expected ErrSuperAdminLocked, got %v", err)
		}
		if !reflect.DeepEqual(got.Roles, roles) {
			t.Fatalf("expected roles unchanged, got %v", got.Roles)
		}
	}
}

func TestToggleRoleRejectsLastRole(t *testing.T) {
	pp := PagePermission{ID: "payroll", Path: "/payroll", Roles: []string{RoleManager}}
	got, err := ToggleRole(pp, RoleManager)
	if !errors.Is(err, ErrLastRole) {
		t.Fatalf("expected ErrLastRole, got %v", err)
	}
	if !reflect.DeepEqual(got.Roles, []string{RoleManager}) {
		t.Fatalf("expected roles unchanged, got %v", got.Roles)
	}
}

func TestToggleRoleRejectsUnknownRole(t *testing.T) {
	pp := PagePermission{ID: "payroll", Path: "/payroll", Roles: []string{RoleManager}}
	if _, err := ToggleRole(pp, "contractor"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestToggleSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	roles := Roles()
	table := DefaultTable()

	for i := 0; i < 2000; i++ {
		id := table.IDs()[rng.Intn(len(table))]
		next, _ := ToggleRole(table[id], roles[rng.Intn(len(roles))])
		table[id] = next

		for _, pp := range table {
			if len(pp.Roles) == 0 {
				t.Fatalf("page %s lost all roles after %d toggles", pp.ID, i)
			}
			if !pp.Has(RoleSuperAdmin) {
				t.Fatalf("page %s lost super admin after %d toggles", pp.ID, i)
			}
			if !containsRole(pp.Roles, RoleSuperAdmin) {
				t.Fatalf("page %s dropped stored super admin after %d toggles", pp.ID, i)
			}
		}
	}
}

func TestDraftTracksUnsavedChanges(t *testing.T) {
	d := NewDraft(Table{"reports": {Path: "/reports", Roles: []string{RoleManager}}})
	if d.Dirty() {
		t.Fatal("expected fresh draft to be clean")
	}
	if _, ok := d.Table()["users"]; !ok {
		t.Fatal("expected catalogue pages merged into draft")
	}

	if _, err := d.Toggle("reports", RoleSuperAdmin); err == nil {
		t.Fatal("expected super admin toggle to be rejected")
	}
	if d.Dirty() {
		t.Fatal("rejected toggle must not mark draft dirty")
	}

	if _, err := d.Toggle("missing", RoleUser); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}

	pp, err := d.Toggle("reports", RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pp.Has(RoleUser) || !d.Dirty() {
		t.Fatalf("expected dirty draft with user role, got %+v", pp)
	}

	d.Reset(DefaultTable())
	if d.Dirty() || d.Table()["reports"].Has(RoleUser) {
		t.Fatal("expected reset to drop unsaved edits")
	}
}

func containsRole(roles []string, role string) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}
