package httpx

import (
	"net/http"
	"slices"

	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

type Middleware func(http.Handler) http.Handler

// Chain wraps h so that mws run in the order given.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range slices.Backward(mws) {
		h = mw(h)
	}
	return h
}

// Authenticator resolves the caller of r. A non-nil error means the request
// is unauthenticated.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

type AuthenticatorFunc func(r *http.Request) (Principal, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (Principal, error) { return f(r) }

// AuthnMiddleware rejects unauthenticated requests with 401 and stores the
// principal in the context otherwise.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authenticate(r)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("request not authenticated", "error", err)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "a valid session is required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole admits principals holding one of roles and answers 403
// otherwise. It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "a valid session is required")
				return
			}
			if !slices.Contains(roles, p.Role) {
				WriteError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
