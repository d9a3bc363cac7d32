package http

import (
	"net/http"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/sessions"
	"github.com/neuralsys/fleetdesk/internal/auth/store"
	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
	"github.com/neuralsys/fleetdesk/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe that pings the database and the session store
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	fleetsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	fleetsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	ss sessions.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &fleetsdk.HealthChecks{
			Database: "ok",
			Sessions: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := ss.Ping(r.Context()); err != nil {
			checks.Sessions = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, fleetsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
