package auth

// Permission strings understood by the checker. Permissions are opaque
// tokens compared by exact match; the resource:action shape is a naming
// convention, not something the checker interprets.
const (
	PermUsersRead       = "users:read"
	PermUsersWrite      = "users:write"
	PermUsersDelete     = "users:delete"
	PermDocumentsRead   = "documents:read"
	PermDocumentsWrite  = "documents:write"
	PermDocumentsDelete = "documents:delete"
	PermRolesRead       = "roles:read"
	PermRolesWrite      = "roles:write"
	PermRolesDelete     = "roles:delete"
	PermMissionsRead    = "missions:read"
	PermMissionsWrite   = "missions:write"
	PermMissionsDelete  = "missions:delete"
	PermAdminAccess     = "admin:access"
)

// Checker is the authorization engine. Its tables are built once by
// NewChecker and never mutated afterwards, so it is safe under unlimited
// concurrent use. Every method is a total function: it always returns a
// boolean and never performs I/O.
type Checker struct {
	hierarchy   map[Role][]Role
	permissions map[Role]map[string]struct{}
}

// NewChecker builds the static role hierarchy and permission tables.
// Admin is handled as "matches everything" rather than an enumerated set.
func NewChecker() *Checker {
	return &Checker{
		hierarchy: map[Role][]Role{
			RoleAdmin:    {RoleAdmin, RoleEngineer, RoleViewer},
			RoleEngineer: {RoleEngineer, RoleViewer},
			RoleViewer:   {RoleViewer},
		},
		permissions: map[Role]map[string]struct{}{
			RoleEngineer: permSet(PermDocumentsRead, PermDocumentsWrite, PermMissionsRead),
			RoleViewer:   permSet(PermDocumentsRead, PermMissionsRead),
		},
	}
}

func permSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// RolesIncluding returns the roles whose capabilities include those of the
// given role, per the fixed hierarchy (e.g. engineer capabilities are also
// held by admin). Used by callers composing explicit role lists.
func (c *Checker) RolesIncluding(role Role) []Role {
	var out []Role
	for candidate, inherits := range c.hierarchy {
		for _, r := range inherits {
			if r == role {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}

// HasRole reports whether the user is active and holds exactly the given
// role. No hierarchy climbing happens here; callers wanting "engineer or
// above" pass an explicit list to HasAnyRole.
func (c *Checker) HasRole(user *User, role Role) bool {
	if user == nil || !user.IsActive {
		return false
	}
	return user.Role == role
}

// HasAnyRole reports whether the user is active and holds any listed role.
func (c *Checker) HasAnyRole(user *User, roles ...Role) bool {
	if user == nil || !user.IsActive {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the user holds a permission string.
// Inactive users never pass. Admin bypasses the table entirely.
func (c *Checker) HasPermission(user *User, permission string) bool {
	if user == nil || !user.IsActive {
		return false
	}
	if user.Role == RoleAdmin {
		return true
	}
	_, ok := c.permissions[user.Role][permission]
	return ok
}

// CanAccessMission reports whether the user may touch resources scoped to
// a mission. An empty mission means the resource is unscoped and is open
// to any active user. Scoped missions currently pass as well; per-user
// mission assignment is a planned extension, so the parameter is part of
// the contract even though it does not yet narrow the decision.
func (c *Checker) CanAccessMission(user *User, mission string) bool {
	return user != nil && user.IsActive
}

// CanAccessDocument decides read-level access. Precedence, most specific
// first: user-specific override, role-specific override, role default.
// Admin and the mission check short-circuit the chain. Override rows are
// supplied prefetched so the decision itself stays pure.
func (c *Checker) CanAccessDocument(user *User, doc *Document, userOverrides, roleOverrides []DocumentPermission) bool {
	if user == nil || doc == nil || !user.IsActive {
		return false
	}
	if user.Role == RoleAdmin {
		return true
	}
	if !c.CanAccessMission(user, doc.Mission) {
		return false
	}
	// Any override type grants at least read-level access.
	if len(userOverrides) > 0 {
		return anyOverride(userOverrides, PermissionRead, PermissionWrite, PermissionDelete)
	}
	if len(roleOverrides) > 0 {
		return anyOverride(roleOverrides, PermissionRead, PermissionWrite, PermissionDelete)
	}
	// Default role policy: engineers and viewers both read documents in
	// missions they can access.
	return user.Role == RoleEngineer || user.Role == RoleViewer
}

// CanModifyDocument decides write/delete-level access. A user-specific
// write or delete override wins over everything below it; a read-only user
// override does not block the role-level lookup. Default policy allows
// modification for engineers only.
func (c *Checker) CanModifyDocument(user *User, doc *Document, userOverrides, roleOverrides []DocumentPermission) bool {
	if user == nil || doc == nil || !user.IsActive {
		return false
	}
	if user.Role == RoleAdmin {
		return true
	}
	if !c.CanAccessMission(user, doc.Mission) {
		return false
	}
	if anyOverride(userOverrides, PermissionWrite, PermissionDelete) {
		return true
	}
	if anyOverride(roleOverrides, PermissionWrite, PermissionDelete) {
		return true
	}
	return user.Role == RoleEngineer
}

func anyOverride(overrides []DocumentPermission, types ...PermissionType) bool {
	for _, o := range overrides {
		for _, t := range types {
			if o.Type == t {
				return true
			}
		}
	}
	return false
}
