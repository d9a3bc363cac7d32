package fleetsdk

import "time"

// Gate states reported by the session endpoint.
const (
	StateAnonymous           = "anonymous"
	StateAwaitingFirstAdmin  = "awaiting_first_admin"
	StateAwaitingCredentials = "awaiting_credentials"
	StateAuthenticated       = "authenticated"
)

// Roles understood by the service. Anything else is stored as RoleUser.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ValidationErrorResponse is returned when request fields fail validation.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// Account is an account as the admin API exposes it. Credentials are never
// returned.
type Account struct {
	ID          int64     `json:"id"`
	Handle      string    `json:"handle"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type AccountList struct {
	Accounts []Account `json:"accounts"`
}

// SessionAccount is the snapshot taken at login. It does not follow later
// changes to the account.
type SessionAccount struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
}

type SessionResponse struct {
	State   string          `json:"state"`
	Account *SessionAccount `json:"account,omitempty"`
}

type BootstrapRequest struct {
	Handle          string `json:"handle"`
	Email           string `json:"email,omitempty"`
	DisplayName     string `json:"display_name,omitempty"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// BootstrapResponse carries the created administrator. State is anonymous:
// the administrator still has to log in.
type BootstrapResponse struct {
	State   string  `json:"state"`
	Account Account `json:"account"`
}

type CreateAccountRequest struct {
	Handle      string `json:"handle"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
	Role        string `json:"role,omitempty"`
	Active      *bool  `json:"active,omitempty"` // defaults to true
}

// UpdateProfileRequest changes only the fields that are set. An empty email
// clears it.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
}

type SetPasswordRequest struct {
	Password string `json:"password"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}
