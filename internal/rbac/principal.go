package rbac

import (
	"context"

	"sqipit/internal/auth"
)

// Principal is the identity an operation runs as. A zero Principal is
// an anonymous caller (public join/position/cancel endpoints).
type Principal struct {
	UserID         string
	OrganizationID string
	Role           string
}

func (p Principal) IsAnonymous() bool { return p.UserID == "" }

// PrincipalFromContext assembles a Principal from whatever identity the
// auth middleware stored. Missing identity yields an anonymous Principal,
// never an error; authorization decisions belong to the policy checks.
func PrincipalFromContext(ctx context.Context) Principal {
	var p Principal
	if uid, err := auth.UserID(ctx); err == nil {
		p.UserID = uid
	}
	if org, err := auth.OrganizationID(ctx); err == nil {
		p.OrganizationID = org
	}
	if role, err := auth.Role(ctx); err == nil {
		p.Role = role
	}
	return p
}
