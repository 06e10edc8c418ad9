package rbac

// Policy predicates over (principal, organization scope). These are the
// single source of truth for queue/customer authorization; handlers and
// services must not re-derive role logic ad hoc.
//
// Rules:
// - super_admin bypasses all organization scoping.
// - staff and above manage queues and call/complete/cancel customers,
//   but only inside their own organization.
// - anyone, including anonymous callers, may join a queue.

// CanManageQueues reports whether p may create, update or deactivate
// queues owned by orgID.
func CanManageQueues(p Principal, orgID string) bool {
	if IsSuperAdmin(p.Role) {
		return true
	}
	return AtLeast(p.Role, RoleStaff) && p.OrganizationID == orgID && orgID != ""
}

// CanOperateQueue reports whether p may run the service-side customer
// operations (call next, call by id, complete) for queues of orgID.
func CanOperateQueue(p Principal, orgID string) bool {
	return CanManageQueues(p, orgID)
}

// CanCancelEntry reports whether p may cancel a specific queue entry.
// The owning registered user may always cancel their own entry; staff
// may cancel any entry in their organization. When no owner is recorded
// on the entry, anonymous cancellation is permitted; that is what the
// public cancel endpoint relies on for walk-in customers.
func CanCancelEntry(p Principal, orgID, entryUserID string) bool {
	if IsSuperAdmin(p.Role) {
		return true
	}
	if entryUserID != "" && p.UserID == entryUserID {
		return true
	}
	if AtLeast(p.Role, RoleStaff) && p.OrganizationID == orgID && orgID != "" {
		return true
	}
	return entryUserID == ""
}

// CanGrantLocationAccess reports whether an ACL holder with level may
// grant access to others. Only location owners can.
func CanGrantLocationAccess(level AccessLevel) bool {
	return level.Covers(AccessOwner)
}
