package types

import "fmt"

// Role represents a user's grade within the shop
type Role string

const (
	RoleUser  Role = "USER"
	RoleVIP   Role = "VIP"
	RoleAdmin Role = "ADMIN"
)

// ParseRole validates and converts a string into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleVIP, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Actor is the authenticated identity attached to every request.
// It is produced by the authentication collaborator; this subsystem
// never issues or validates credentials.
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
