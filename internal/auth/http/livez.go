package http

import (
	"net/http"
	"time"

	"github.com/neuralsys/fleetdesk/pkg/fleetsdk"
	"github.com/neuralsys/fleetdesk/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning status, uptime and version. Always 200 while the process is running.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	fleetsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, fleetsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
