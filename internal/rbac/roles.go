package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleCustomer   = "customer"
	RoleStaff      = "staff"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleAPIClient  = "api_client" // machine-to-machine integrations
)

// roleRank orders the coarse roles for management checks.
// api_client sits beside staff: integrations may operate queues but
// never administer organizations.
var roleRank = map[string]int{
	RoleCustomer:   1,
	RoleAPIClient:  2,
	RoleStaff:      2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// AtLeast reports whether role carries at least the privileges of min.
// Unknown roles rank below customer.
func AtLeast(role, min string) bool {
	return roleRank[role] >= roleRank[min] && roleRank[min] > 0
}

// Location access levels. These form a total order and gate the
// optional fine-grained per-location ACL, independent of coarse roles.
type AccessLevel string

const (
	AccessViewer  AccessLevel = "viewer"
	AccessManager AccessLevel = "manager"
	AccessOwner   AccessLevel = "owner"
)

var accessRank = map[AccessLevel]int{
	AccessViewer:  1,
	AccessManager: 2,
	AccessOwner:   3,
}

// Covers reports whether level grants at least min.
func (l AccessLevel) Covers(min AccessLevel) bool {
	return accessRank[l] >= accessRank[min] && accessRank[min] > 0
}
