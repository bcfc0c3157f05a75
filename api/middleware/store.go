package middleware

import (
	"net/http"

	"github.com/carni-kridi/attar-backend/api/responses"
	"github.com/carni-kridi/attar-backend/pkg/logger"
)

// StoreContext requires an active store on the caller.
func StoreContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := CallerFromContext(r.Context()).ActiveStore(); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
