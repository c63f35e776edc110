package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/internal/dashboard"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

func DashboardOverview(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "dashboard")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		overview, err := svc.Overview(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}
