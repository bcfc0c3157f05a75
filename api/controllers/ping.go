package controllers

import (
	"net/http"

	"github.com/carni-kridi/attar-backend/api/middleware"
	"github.com/carni-kridi/attar-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.CallerFromContext(r.Context())
		payload := map[string]string{"scope": "private", "status": "ok", "role": string(caller.Role)}
		if store := middleware.StoreIDFromContext(r.Context()); store != "" {
			payload["storeId"] = store
		}
		responses.WriteSuccess(w, payload)
	}
}
