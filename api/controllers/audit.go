package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/api/validators"
	"github.com/angelmondragon/bloodbank-backend/internal/audit"
	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

func AdminAuditLogs(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "audit")
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

		var filter audit.Filter
		if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
			action := enums.AuditAction(raw)
			filter.Action = &action
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("entity_type")); raw != "" {
			entity := enums.AuditEntityType(raw)
			filter.EntityType = &entity
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("entity_id")); raw != "" {
			filter.EntityID = &raw
		}

		result, err := svc.List(r.Context(), actor, audit.ListParams{Filter: filter, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
