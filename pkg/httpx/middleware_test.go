package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neuralsys/fleetdesk/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mark("a"), mark("b"), mark("c"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestAuthnAndRequireRole(t *testing.T) {
	authn := httpx.AuthnMiddleware(httpx.AuthenticatorFunc(func(r *http.Request) (httpx.Principal, error) {
		switch r.Header.Get("X-Test-User") {
		case "admin":
			return httpx.Principal{Subject: "admin", Role: "admin"}, nil
		case "neo":
			return httpx.Principal{Subject: "neo", Role: "user"}, nil
		default:
			return httpx.Principal{}, errors.New("no session")
		}
	}))

	var seen httpx.Principal
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httpx.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), authn, httpx.RequireRole("admin"))

	tests := []struct {
		user string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"neo", http.StatusForbidden},
		{"admin", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Test-User", tt.user)
			require.Equal(t, tt.want, serve(h, req).Code)
		})
	}
	require.Equal(t, "admin", seen.Subject)
}

func TestRequireRole_WithoutPrincipal(t *testing.T) {
	h := httpx.RequireRole("admin")(okHandler)
	require.Equal(t, http.StatusUnauthorized, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}
