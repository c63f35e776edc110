package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloodbank-backend/api/middleware"
	"github.com/angelmondragon/bloodbank-backend/api/responses"
	"github.com/angelmondragon/bloodbank-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/bloodbank-backend/pkg/errors"
	"github.com/angelmondragon/bloodbank-backend/pkg/logger"
)

// requireActor writes a 401 and returns false when the Actor middleware did not run.
func requireActor(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (auth.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor identity"))
		return auth.Actor{}, false
	}
	return actor, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
