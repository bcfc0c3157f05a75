package middleware

import (
	"net/http"

	"github.com/carni-kridi/attar-backend/api/responses"
	"github.com/carni-kridi/attar-backend/internal/access"
	"github.com/carni-kridi/attar-backend/pkg/logger"
)

// Authorize rejects callers whose role may not run op before the handler
// decodes anything. Services repeat the check with the full resource scope.
func Authorize(op access.Operation, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Authorize(CallerFromContext(r.Context()), op); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
