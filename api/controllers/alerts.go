package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/api/validators"
	"github.com/angelmondragon/bloodbank-backend/internal/notifications"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

// ListAlerts returns stock alerts, newest first. ?open=true hides acknowledged ones.
func ListAlerts(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "alerts")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		openOnly, err := validators.ParseQueryBool(r, "open")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := validators.ParseQueryBloodGroup(r, "blood_group")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), actor, notifications.ListParams{
			OpenOnly: openOnly,
			Group:    group,
			Params:   page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AcknowledgeAlert(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "alerts")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		alertID, err := validators.ParseUUIDParam(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Acknowledge(r.Context(), actor, alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"acknowledged": true})
	}
}
