package controllers

import (
	"net/http"

	"github.com/angelmondragon/bloodbank-backend/api/middleware"
	"github.com/angelmondragon/bloodbank-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if actor, ok := middleware.ActorFromContext(r.Context()); ok {
			payload["actor_id"] = actor.UserID.String()
			payload["role"] = actor.Role.String()
		}
		responses.WriteSuccess(w, payload)
	}
}
