package fleetsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes the service puts in the "error" or "code" field.
const (
	ErrorCodeInvalidRequest      = "invalid_request"
	ErrorCodeValidation          = "validation_error"
	ErrorCodeInvalidCredentials  = "invalid_credentials"
	ErrorCodeUnauthorized        = "unauthorized"
	ErrorCodeForbidden           = "forbidden"
	ErrorCodeNotFound            = "not_found"
	ErrorCodeConflict            = "conflict"
	ErrorCodeAlreadyBootstrapped = "already_bootstrapped"
	ErrorCodeRateLimited         = "rate_limit_exceeded"
	ErrorCodeServerError         = "server_error"
)

// APIError is a non-success response from the service.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Details     map[string]string // field errors for ErrorCodeValidation
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("fleetdesk: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("fleetdesk: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// parseErrorResponse turns a non-2xx response body into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	var valErr ValidationErrorResponse
	if err := json.Unmarshal(body, &valErr); err == nil && valErr.Code != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        valErr.Code,
			Description: valErr.Message,
			Details:     valErr.Details,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
