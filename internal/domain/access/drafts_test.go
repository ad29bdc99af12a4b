package access

import (
	"context"
	"errors"
	"testing"

	"hrportal/internal/platform/kv"
)

func newStartedAuthorizer(t *testing.T, store PermissionStore) *Authorizer {
	t.Helper()
	a := NewAuthorizer(store)
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestDraftRegistryCommitPersistsAndClearsDirty(t *testing.T) {
	ctx := context.Background()
	records := kv.NewMemory()
	a := newStartedAuthorizer(t, NewRecordStore(records))
	r := NewDraftRegistry(a)
	defer r.Close()

	view, err := r.Toggle("admin-1", "projects", RoleUser)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !view.Dirty || !view.Table["projects"].Has(RoleUser) {
		t.Fatalf("expected dirty draft granting user, got %+v", view)
	}
	if a.Allowed(&Principal{ID: "u1", Role: RoleUser}, "/projects") {
		t.Fatal("draft edits must not affect decisions before commit")
	}

	if _, err := r.Commit(ctx, "admin-1"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if r.Get("admin-1").Dirty {
		t.Fatal("expected draft clean after commit")
	}
	if !a.Allowed(&Principal{ID: "u1", Role: RoleUser}, "/projects/7") {
		t.Fatal("expected committed grant in effect")
	}
}

func TestDraftRegistryKeepsEditsOnFailedCommit(t *testing.T) {
	store := &fakeStore{exists: true, table: DefaultTable()}
	a := newStartedAuthorizer(t, store)
	r := NewDraftRegistry(a)
	defer r.Close()

	if _, err := r.Toggle("admin-1", "reports", RoleUser); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	store.saveErr = errBackend

	if _, err := r.Commit(context.Background(), "admin-1"); !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
	view := r.Get("admin-1")
	if !view.Dirty || !view.Table["reports"].Has(RoleUser) {
		t.Fatalf("expected unsaved edits kept, got %+v", view)
	}
}

func TestDraftRegistryResetsOnRemoteUpdate(t *testing.T) {
	store := &fakeStore{exists: true, table: DefaultTable()}
	a := newStartedAuthorizer(t, store)
	r := NewDraftRegistry(a)
	defer r.Close()

	if _, err := r.Toggle("admin-1", "reports", RoleUser); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	remote := DefaultTable()
	remote["training"] = PagePermission{Path: "/training", Roles: []string{RoleAdmin}}
	store.push(Update{Exists: true, Table: remote})

	view := r.Get("admin-1")
	if view.Dirty {
		t.Fatal("expected remote update to discard unsaved edits")
	}
	if view.Table["reports"].Has(RoleUser) {
		t.Fatal("expected local edit dropped")
	}
	if view.Table["training"].Has(RoleManager) {
		t.Fatal("expected remote table reflected in draft")
	}
}

func TestDraftRegistryIsolatesPrincipals(t *testing.T) {
	a := newStartedAuthorizer(t, &fakeStore{exists: true, table: DefaultTable()})
	r := NewDraftRegistry(a)
	defer r.Close()

	if _, err := r.Toggle("admin-1", "leave", RoleUser); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if r.Get("admin-2").Dirty {
		t.Fatal("expected other principal's draft untouched")
	}

	r.Discard("admin-1")
	view := r.Get("admin-1")
	if view.Dirty || !view.Table["leave"].Has(RoleUser) {
		t.Fatalf("expected fresh draft after discard, got %+v", view)
	}
}

func TestDraftRegistryRejectsSuperAdminToggle(t *testing.T) {
	a := newStartedAuthorizer(t, &fakeStore{exists: true, table: DefaultTable()})
	r := NewDraftRegistry(a)
	defer r.Close()

	view, err := r.Toggle("admin-1", "users", RoleSuperAdmin)
	if !errors.Is(err, ErrSuperAdminLocked) {
		t.Fatalf("expected ErrSuperAdminLocked, got %v", err)
	}
	if view.Dirty || !view.Table["users"].Has(RoleSuperAdmin) {
		t.Fatalf("expected draft unchanged, got %+v", view)
	}
}
