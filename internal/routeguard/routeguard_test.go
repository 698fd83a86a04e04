package routeguard

import (
	"testing"

	"github.com/saintdannyyy/shelta/internal/model"
)

func TestDecideUnauthenticated(t *testing.T) {
	decision := Decide(nil, model.RoleTenant)
	if decision.Render || decision.Redirect != LoginPath {
		t.Fatalf("expected login redirect, got %+v", decision)
	}
}

func TestDecideRoleMatch(t *testing.T) {
	user := &model.User{ID: "u1", Role: model.RoleLandlord}
	decision := Decide(user, model.RoleLandlord)
	if !decision.Render || decision.Redirect != "" {
		t.Fatalf("expected render, got %+v", decision)
	}
}

func TestDecideRoleMismatch(t *testing.T) {
	tenant := &model.User{ID: "u1", Role: model.RoleTenant}
	decision := Decide(tenant, model.RoleLandlord)
	if decision.Render {
		t.Fatalf("expected redirect, got render")
	}
	if decision.Redirect != "/dashboard/tenant" {
		t.Fatalf("mismatched role must redirect to its own home, got %s", decision.Redirect)
	}
}

func TestRoleHomePath(t *testing.T) {
	cases := map[model.Role]string{
		model.RoleTenant:   "/dashboard/tenant",
		model.RoleLandlord: "/dashboard/landlord",
		model.RoleProvider: "/dashboard/provider",
		model.RoleAgent:    "/dashboard/agent",
		model.Role("x"):    LoginPath,
	}
	for role, want := range cases {
		if got := RoleHomePath(role); got != want {
			t.Fatalf("RoleHomePath(%s) = %s, want %s", role, got, want)
		}
	}
}
