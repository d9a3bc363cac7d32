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

// AccountsHandler serves the admin account API. Every route runs behind
// AuthnMiddleware and RequireRole("admin").
type AccountsHandler struct {
	DirectoryService *service.DirectoryService
}

// HandleList lists all accounts.
//
//	@Summary	List accounts
//	@Tags		Accounts
//	@Produce	json
//	@Security	SessionCookie
//	@Success	200	{object}	fleetsdk.AccountList
//	@Failure	401	{object}	fleetsdk.ErrorResponse
//	@Failure	403	{object}	fleetsdk.ErrorResponse
//	@Router		/v1/accounts [get].
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.DirectoryService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := fleetsdk.AccountList{Accounts: make([]fleetsdk.Account, 0, len(list))}
	for _, a := range list {
		out.Accounts = append(out.Accounts, toAccount(a))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleCreate creates an account.
//
//	@Summary	Create account
//	@Tags		Accounts
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		request	body		fleetsdk.CreateAccountRequest	true	"Account"
//	@Success	201		{object}	fleetsdk.Account
//	@Failure	400		{object}	fleetsdk.ValidationErrorResponse
//	@Failure	409		{object}	fleetsdk.ErrorResponse	"Handle or email already in use"
//	@Router		/v1/accounts [post].
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req fleetsdk.CreateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.DirectoryService.Create(r.Context(), domain.NewAccount{
		Handle:      req.Handle,
		Email:       req.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Password:    req.Password,
		Role:        domain.ParseRole(req.Role),
		Inactive:    req.Active != nil && !*req.Active,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAccount(created.Summary()))
}

// HandleGet returns one account.
//
//	@Summary	Get account
//	@Tags		Accounts
//	@Produce	json
//	@Security	SessionCookie
//	@Param		handle	path		string	true	"Account handle"
//	@Success	200		{object}	fleetsdk.Account
//	@Failure	404		{object}	fleetsdk.ErrorResponse
//	@Router		/v1/accounts/{handle} [get].
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.DirectoryService.Get(r.Context(), r.PathValue("handle"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccount(a))
}

// HandleUpdateProfile changes the display name or email.
//
//	@Summary	Update profile
//	@Tags		Accounts
//	@Accept		json
//	@Produce	json
//	@Security	SessionCookie
//	@Param		handle	path		string							true	"Account handle"
//	@Param		request	body		fleetsdk.UpdateProfileRequest	true	"Fields to change"
//	@Success	200		{object}	fleetsdk.Account
//	@Failure	400		{object}	fleetsdk.ValidationErrorResponse
//	@Failure	404		{object}	fleetsdk.ErrorResponse
//	@Failure	409		{object}	fleetsdk.ErrorResponse	"Email already in use"
//	@Router		/v1/accounts/{handle} [patch].
func (h *AccountsHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req fleetsdk.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	a, err := h.DirectoryService.UpdateProfile(r.Context(), r.PathValue("handle"), domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccount(a))
}

// HandleSetPassword replaces the password.
//
//	@Summary	Set password
//	@Tags		Accounts
//	@Accept		json
//	@Security	SessionCookie
//	@Param		handle	path	string						true	"Account handle"
//	@Param		request	body	fleetsdk.SetPasswordRequest	true	"New password"
//	@Success	204
//	@Failure	400	{object}	fleetsdk.ValidationErrorResponse
//	@Failure	404	{object}	fleetsdk.ErrorResponse
//	@Router		/v1/accounts/{handle}/password [put].
func (h *AccountsHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req fleetsdk.SetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	handle := r.PathValue("handle")
	if err := h.DirectoryService.SetPassword(r.Context(), handle, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("password reset", "handle", domain.NormalizeHandle(handle), "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetActive enables or disables an account.
//
//	@Summary	Set active
//	@Tags		Accounts
//	@Accept		json
//	@Security	SessionCookie
//	@Param		handle	path	string						true	"Account handle"
//	@Param		request	body	fleetsdk.SetActiveRequest	true	"Active flag"
//	@Success	204
//	@Failure	404	{object}	fleetsdk.ErrorResponse
//	@Failure	409	{object}	fleetsdk.ErrorResponse	"Last active admin"
//	@Router		/v1/accounts/{handle}/active [put].
func (h *AccountsHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	var req fleetsdk.SetActiveRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, "Request body must be valid JSON")
		return
	}

	if err := h.DirectoryService.SetActive(r.Context(), r.PathValue("handle"), req.Active); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetRole changes the role. Unknown roles are stored as user.
//
//	@Summary	Set role
//	@Tags		Accounts
//	@Accept		json
//	@Security	SessionCookie
//	@Param		handle	path	string					true	"Account handle"
//	@Param		request	body	fleetsdk.SetRoleRequest	true	"Role"
//	@Success	204
//	@Failure	400	{object}	fleetsdk.ValidationErrorResponse
//	@Failure	404	{object}	fleetsdk.ErrorResponse
//	@Failure	409	{object}	fleetsdk.ErrorResponse	"Last active admin"
//	@Router		/v1/accounts/{handle}/role [put].
func (h *AccountsHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req fleetsdk.SetRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.DirectoryService.SetRole(r.Context(), r.PathValue("handle"), domain.ParseRole(req.Role)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes an account. Administrators cannot delete themselves.
//
//	@Summary	Delete account
//	@Tags		Accounts
//	@Security	SessionCookie
//	@Param		handle	path	string	true	"Account handle"
//	@Success	204
//	@Failure	404	{object}	fleetsdk.ErrorResponse
//	@Failure	409	{object}	fleetsdk.ErrorResponse	"Own account or last active admin"
//	@Router		/v1/accounts/{handle} [delete].
func (h *AccountsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	handle := domain.NormalizeHandle(r.PathValue("handle"))
	if handle == actor(r) {
		httpx.WriteError(w, http.StatusConflict, fleetsdk.ErrorCodeConflict, "You cannot delete your own account")
		return
	}

	if err := h.DirectoryService.Delete(r.Context(), handle); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("account deleted", "handle", handle, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

type validatable interface {
	Validate() map[string]string
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := httpx.DecodeJSON(w, r, req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, "Request body must be valid JSON")
		return false
	}
	if errs := req.Validate(); errs != nil {
		writeValidation(w, errs)
		return false
	}
	return true
}

func actor(r *http.Request) string {
	p, _ := httpx.PrincipalFromContext(r.Context())
	return p.Subject
}

// writeServiceError maps directory errors onto specific admin responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, fleetsdk.ErrorCodeNotFound, "Account not found")
	case errors.Is(err, service.ErrLastAdmin):
		httpx.WriteError(w, http.StatusConflict, fleetsdk.ErrorCodeConflict, "At least one active admin must remain")
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, fleetsdk.ErrorCodeConflict, "Handle or email already in use")
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("account operation failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, fleetsdk.ErrorCodeServerError, "An internal error occurred")
	}
}
