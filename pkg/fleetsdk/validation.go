package fleetsdk

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	requiredReason = "required"

	MinPasswordLength = 4
	maxPasswordLength = 128
	maxHandleLength   = 64
	maxNameLength     = 128
)

var (
	reHandle = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]*$`)
	reEmail  = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
)

// Validate checks the bootstrap fields. It returns field names mapped to
// messages, or nil when the request is valid.
func (b BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)

	validateHandle(errs, b.Handle)
	validateEmail(errs, b.Email)
	validateDisplayName(errs, b.DisplayName)
	validatePassword(errs, "password", b.Password)
	if b.PasswordConfirm != b.Password {
		errs["password_confirm"] = "does not match password"
	}

	return nilIfEmpty(errs)
}

func (c CreateAccountRequest) Validate() map[string]string {
	errs := make(map[string]string)

	validateHandle(errs, c.Handle)
	validateEmail(errs, c.Email)
	validateDisplayName(errs, c.DisplayName)
	validatePassword(errs, "password", c.Password)
	validateRole(errs, c.Role, true)

	return nilIfEmpty(errs)
}

func (u UpdateProfileRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if u.Email != nil {
		validateEmail(errs, *u.Email)
	}
	if u.DisplayName != nil {
		validateDisplayName(errs, *u.DisplayName)
	}

	return nilIfEmpty(errs)
}

func (p SetPasswordRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validatePassword(errs, "password", p.Password)
	return nilIfEmpty(errs)
}

func (r SetRoleRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateRole(errs, r.Role, false)
	return nilIfEmpty(errs)
}

func validateHandle(errs map[string]string, handle string) {
	handle = strings.TrimSpace(handle)
	switch {
	case handle == "":
		errs["handle"] = requiredReason
	case utf8.RuneCountInString(handle) > maxHandleLength:
		errs["handle"] = "too long (max 64)"
	case !reHandle.MatchString(handle):
		errs["handle"] = "must only contain a-z, A-Z, 0-9, '.', '_', '@' or '-'"
	}
}

func validateEmail(errs map[string]string, email string) {
	email = strings.TrimSpace(email)
	if email != "" && !reEmail.MatchString(email) {
		errs["email"] = "must be a valid email address"
	}
}

func validateDisplayName(errs map[string]string, name string) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > maxNameLength {
		errs["display_name"] = "too long (max 128)"
	}
}

func validatePassword(errs map[string]string, field, pw string) {
	switch n := utf8.RuneCountInString(pw); {
	case n == 0:
		errs[field] = requiredReason
	case n < MinPasswordLength:
		errs[field] = "too short (min 4)"
	case n > maxPasswordLength:
		errs[field] = "too long (max 128)"
	}
}

// validateRole only checks presence; the service coerces any role other than
// admin to user.
func validateRole(errs map[string]string, role string, optional bool) {
	if !optional && strings.TrimSpace(role) == "" {
		errs["role"] = requiredReason
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
