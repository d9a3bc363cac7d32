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

type SessionHandler struct {
	Gate    *service.SessionGate
	Cookies *SessionCookies
}

// HandleGet reports the gate state of the caller.
//
//	@Summary		Current session
//	@Description	Returns the logged in account, or 401 with the state the caller is waiting in (awaiting_first_admin or awaiting_credentials).
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	fleetsdk.SessionResponse	"Authenticated"
//	@Failure		401	{object}	fleetsdk.SessionResponse	"No live session"
//	@Failure		500	{object}	fleetsdk.ErrorResponse
//	@Router			/v1/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Gate.Require(r.Context(), h.Cookies.SessionID(r))
	if err != nil {
		var gerr *service.GateError
		if errors.As(err, &gerr) {
			httpx.WriteJSON(w, http.StatusUnauthorized, fleetsdk.SessionResponse{State: string(gerr.State)})
			return
		}
		slogx.FromContext(r.Context()).Error("session lookup failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, fleetsdk.ErrorCodeServerError, "An internal error occurred")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authenticated(snap))
}

// HandleLogin opens a session.
//
//	@Summary		Log in
//	@Description	Verifies a handle or email and password and sets the session cookie. Every rejection is reported the same way.
//	@Tags			Session
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			login		formData	string						true	"Handle or email"
//	@Param			password	formData	string						true	"Password"
//	@Success		200			{object}	fleetsdk.SessionResponse
//	@Failure		400			{object}	fleetsdk.ErrorResponse	"Missing fields"
//	@Failure		401			{object}	fleetsdk.ErrorResponse	"Invalid credentials"
//	@Failure		429			{object}	fleetsdk.ErrorResponse
//	@Router			/v1/session [post].
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	l := slogx.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, "Request body must be form encoded")
		return
	}

	login := strings.TrimSpace(r.PostFormValue("login"))
	password := r.PostFormValue("password")
	if login == "" || password == "" {
		httpx.WriteError(w, http.StatusBadRequest, fleetsdk.ErrorCodeInvalidRequest, "login and password are required")
		return
	}

	sid, snap, err := h.Gate.Login(r.Context(), login, password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, fleetsdk.ErrorCodeInvalidCredentials, "Invalid login or password")
		return
	case err != nil:
		l.Error("login failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, fleetsdk.ErrorCodeServerError, "An internal error occurred")
		return
	}

	if err := h.Cookies.Issue(w, sid, snap.Handle); err != nil {
		l.Error("failed to sign session cookie", "error", err)
		_ = h.Gate.Logout(r.Context(), sid)
		httpx.WriteError(w, http.StatusInternalServerError, fleetsdk.ErrorCodeServerError, "An internal error occurred")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authenticated(snap))
}

// HandleLogout ends the session.
//
//	@Summary	Log out
//	@Tags		Session
//	@Success	204	"Session ended; the cookie is cleared"
//	@Failure	500	{object}	fleetsdk.ErrorResponse
//	@Router		/v1/session [delete].
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Gate.Logout(r.Context(), h.Cookies.SessionID(r)); err != nil {
		slogx.FromContext(r.Context()).Error("logout failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, fleetsdk.ErrorCodeServerError, "An internal error occurred")
		return
	}

	h.Cookies.Clear(w)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func authenticated(snap domain.Snapshot) fleetsdk.SessionResponse {
	return fleetsdk.SessionResponse{
		State: string(service.StateAuthenticated),
		Account: &fleetsdk.SessionAccount{
			Handle:      snap.Handle,
			DisplayName: snap.DisplayName,
			Role:        snap.Role.String(),
			IssuedAt:    snap.IssuedAt,
		},
	}
}
