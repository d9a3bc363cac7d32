package domain

import (
	"strings"
	"time"
)

type Account struct {
	ID          int64
	Handle      string // lower-cased, trimmed, unique
	Email       string // empty when absent
	DisplayName string
	Credential  string // encoded by cryptox.PasswordCodec
	Role        Role
	Active      bool
	CreatedAt   time.Time
}

// AccountSummary is an Account without its credential, safe to hand to
// listings and API responses.
type AccountSummary struct {
	ID          int64
	Handle      string
	Email       string
	DisplayName string
	Role        Role
	Active      bool
	CreatedAt   time.Time
}

func (a Account) Summary() AccountSummary {
	return AccountSummary{
		ID:          a.ID,
		Handle:      a.Handle,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
	}
}

func (a Account) Snapshot() Snapshot {
	return Snapshot{
		Handle:      a.Handle,
		DisplayName: a.DisplayName,
		Role:        a.Role,
	}
}

// NormalizeHandle is the canonical form handles are stored and matched in.
func NormalizeHandle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail is the canonical form emails are stored and matched in.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewAccount is the input to account creation. The zero value of Inactive
// creates an enabled account.
type NewAccount struct {
	Handle      string
	Email       string
	DisplayName string
	Password    string
	Role        Role
	Inactive    bool
}

// ProfileUpdate carries optional profile changes; nil fields are left as is.
type ProfileUpdate struct {
	DisplayName *string
	Email       *string
}
