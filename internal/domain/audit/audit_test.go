package audit

import (
	"reflect"
	"testing"
)

func TestBuildBaseQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "no filter",
			wantQuery: "SELECT COUNT(1) FROM audit_events WHERE 1=1",
		},
		{
			name:      "action only",
			filter:    Filter{Action: ActionPermissionsCommit},
			wantQuery: "SELECT COUNT(1) FROM audit_events WHERE 1=1 AND action = $1",
			wantArgs:  []any{ActionPermissionsCommit},
		},
		{
			name:      "all filters",
			filter:    Filter{Action: ActionRoleChanged, EntityType: EntityUser, ActorUser: "u1"},
			wantQuery: "SELECT COUNT(1) FROM audit_events WHERE 1=1 AND action = $1 AND entity_type = $2 AND actor_user_id = $3",
			wantArgs:  []any{ActionRoleChanged, EntityUser, "u1"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildBaseQuery("SELECT COUNT(1)", tc.filter)
			if query != tc.wantQuery {
				t.Fatalf("query = %q, want %q", query, tc.wantQuery)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tc.wantArgs)
			}
		})
	}
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	if err != nil || raw != nil {
		t.Fatalf("expected nil payload, got %q err=%v", raw, err)
	}
	raw, err = marshalOptional(map[string]string{"role": "admin"})
	if err != nil || string(raw) != `{"role":"admin"}` {
		t.Fatalf("unexpected payload %q err=%v", raw, err)
	}
}
