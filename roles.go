package auth

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular customer account
	RoleUser UserRole = "user"
	// RoleSeller is a customer that runs a store
	RoleSeller UserRole = "seller"
	// RoleAdmin is an administrative account
	RoleAdmin UserRole = "admin"
)

// KnownRoles lists every role the service recognizes
var KnownRoles = []UserRole{RoleUser, RoleSeller, RoleAdmin}

// IsValidRole reports whether the given role is one we recognize
func IsValidRole(role UserRole) bool {
	for _, r := range KnownRoles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleAllowed reports whether role is admitted by the given set.
// An empty set admits any authenticated subject.
func RoleAllowed(role UserRole, allowed []UserRole) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
