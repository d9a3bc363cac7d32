package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/domain"
	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/internal/auth/sessions"
	"github.com/neuralsys/fleetdesk/internal/auth/store"
	"github.com/neuralsys/fleetdesk/pkg/httpx"
	"github.com/neuralsys/fleetdesk/pkg/slogx"

	_ "github.com/neuralsys/fleetdesk/api/fleetdesk" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	sessions sessions.Store
	cookies  *SessionCookies

	Gate             *service.SessionGate
	DirectoryService *service.DirectoryService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	ss sessions.Store,
	cookies *SessionCookies,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		sessions:     ss,
		cookies:      cookies,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerBootstrap()
	r.registerAccounts()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Fleetdesk Account Service API
//	@version		0.1.0
//	@description	Account directory and login sessions for the fleetdesk maintenance console.
//	@description
//	@description	Sessions are carried in the fleetdesk_session cookie, an HS256 token pointing at a server-side session.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						fleetdesk_session
//	@description				Session cookie set by POST /v1/session.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authenticate resolves the session cookie into a principal.
func (r *Router) authenticate(req *http.Request) (httpx.Principal, error) {
	sid := r.cookies.SessionID(req)
	snap, err := r.Gate.Require(req.Context(), sid)
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{
		Subject:   snap.Handle,
		Role:      snap.Role.String(),
		SessionID: sid,
	}, nil
}

func (r *Router) registerSession() {
	h := &SessionHandler{Gate: r.Gate, Cookies: r.cookies}

	r.Mux.Handle("GET /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// Rate limited by IP + login field to slow down guessing
	r.Mux.Handle("POST /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "login"),
		),
	)

	r.Mux.Handle("DELETE /v1/session",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{Gate: r.Gate, BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{DirectoryService: r.DirectoryService}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(httpx.AuthenticatorFunc(r.authenticate)),
			httpx.RequireRole(domain.RoleAdmin.String()),
			httpx.RateLimitByPrincipal(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/accounts", admin(h.HandleList))
	r.Mux.Handle("POST /v1/accounts", admin(h.HandleCreate))
	r.Mux.Handle("GET /v1/accounts/{handle}", admin(h.HandleGet))
	r.Mux.Handle("PATCH /v1/accounts/{handle}", admin(h.HandleUpdateProfile))
	r.Mux.Handle("PUT /v1/accounts/{handle}/password", admin(h.HandleSetPassword))
	r.Mux.Handle("PUT /v1/accounts/{handle}/active", admin(h.HandleSetActive))
	r.Mux.Handle("PUT /v1/accounts/{handle}/role", admin(h.HandleSetRole))
	r.Mux.Handle("DELETE /v1/accounts/{handle}", admin(h.HandleDelete))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.sessions),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
