package domain

import "strings"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalises s into a known role. Anything unrecognised becomes
// RoleUser rather than an error.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

func (r Role) String() string { return string(r) }
