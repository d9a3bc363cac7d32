package domain

import "time"

// Snapshot is the copy of an account captured at login. It is not refreshed
// when the account later changes.
type Snapshot struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
}

func (s Snapshot) IsAdmin() bool { return s.Role == RoleAdmin }
