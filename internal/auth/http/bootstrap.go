package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
	"github.com/neuralsys/fleetdesk/pkg/httpx"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

type BootstrapHandler struct {
	Gate             *service.SessionGate
	BootstrapService *service.BootstrapService
}

// ServeHTTP creates the first administrator.
//
//	@Summary		Create the first administrator
//	@Description	Only allowed while the directory is empty. No session is created; the administrator logs in afterwards. When a bootstrap token is configured it must be sent in X-Bootstrap-Token.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string								false	"Bootstrap token, when one is configured"
//	@Param			request				body		fleetsdk.BootstrapRequest			true	"First administrator"
//	@Success		201					{object}	fleetsdk.BootstrapResponse
//	@Failure		400					{object}	fleetsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	fleetsdk.ErrorResponse				"Missing or invalid bootstrap token"
//	@Failure		409					{object}	fleetsdk.ErrorResponse				"Already bootstrapped"
//	@Failure		500					{object}	fleetsdk.ErrorResponse
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	// 1. Check the bootstrap token
	err := h.BootstrapService.CheckToken(r.Header.Get(fleetsdk.BootstrapTokenHeader))
	if errors.Is(err, service.ErrBootstrapForbidden) {
		l.Warn("bootstrap rejected: bad token")
		httpx.WriteError(w, http.StatusUnauthorized, fleetsdk.ErrorCodeUnauthorized, "Invalid bootstrap token")
		return
	}

	// 2. Parse request body and validate
	var req fleetsdk.BootstrapRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, "Request body must be valid JSON")
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidation(w, errs)
		return
	}

	// 3. Create the administrator
	created, state, err := h.Gate.CreateFirstAdmin(r.Context(), domain.FirstAdmin{
		Handle:          strings.TrimSpace(req.Handle),
		Email:           strings.TrimSpace(req.Email),
		DisplayName:     strings.TrimSpace(req.DisplayName),
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyBootstrapped):
			httpx.WriteError(w, http.StatusConflict, fleetsdk.ErrorCodeAlreadyBootstrapped, "System has already been bootstrapped")
		case errors.Is(err, service.ErrInvalidInput):
			httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			httpx.WriteError(w, http.StatusConflict, fleetsdk.ErrorCodeConflict, "Handle or email already in use")
		default:
			l.Error("bootstrap failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, fleetsdk.ErrorCodeServerError, "Failed to create admin account")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, fleetsdk.BootstrapResponse{
		State:   string(state),
		Account: toAccount(created),
	})
}

func writeValidation(w http.ResponseWriter, errs map[string]string) {
	httpx.WriteJSON(w, http.StatusBadRequest, fleetsdk.ValidationErrorResponse{
		Code:    fleetsdk.ErrorCodeValidation,
		Message: "validation failed for some fields",
		Details: errs,
	})
}

func toAccount(a domain.AccountSummary) fleetsdk.Account {
	return fleetsdk.Account{
		ID:          a.ID,
		Handle:      a.Handle,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Role:        a.Role.String(),
		Active:      a.Active,
		CreatedAt:   a.CreatedAt,
	}
}
