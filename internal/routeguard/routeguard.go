package routeguard

import (
	"errors"

	"github.com/saintdannyyy/shelta/internal/model"
)

// ErrProfileMissing signals an authenticated session whose profile row is
// gone. The decision for this case is always a login redirect.
var ErrProfileMissing = errors.New("routeguard: profile missing for authenticated session")

const LoginPath = "/login"

type Decision struct {
	Render   bool
	Redirect string
}

// RoleHomePath maps a role to its dashboard. Unknown roles land on login.
func RoleHomePath(role model.Role) string {
	switch role {
	case model.RoleTenant:
		return "/dashboard/tenant"
	case model.RoleLandlord:
		return "/dashboard/landlord"
	case model.RoleProvider:
		return "/dashboard/provider"
	case model.RoleAgent:
		return "/dashboard/agent"
	default:
		return LoginPath
	}
}

// Decide is the role-gate decision table: no identity redirects to login, a
// matching role renders, a mismatch redirects to the identity's own home.
// Callers re-evaluate on every identity or route change; the table itself
// holds no state.
func Decide(identity *model.User, required model.Role) Decision {
	if identity == nil {
		return Decision{Redirect: LoginPath}
	}
	if identity.Role == required {
		return Decision{Render: true}
	}
	return Decision{Redirect: RoleHomePath(identity.Role)}
}
