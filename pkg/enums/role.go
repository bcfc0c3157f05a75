package enums

import "fmt"

// Role is the single permission role carried by a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAttara Role = "attara"
	RoleWorker Role = "worker"
	RoleClient Role = "client"
)

var validRoles = []Role{
	RoleAdmin,
	RoleAttara,
	RoleWorker,
	RoleClient,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// RequiresStore reports whether users with this role must belong to exactly one store.
func (r Role) RequiresStore() bool {
	return r == RoleWorker || r == RoleClient
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
