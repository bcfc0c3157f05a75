package controllers

import (
	"net/http"
	"strings"

	"github.com/carni-kridi/attar-backend/api/middleware"
	"github.com/carni-kridi/attar-backend/api/responses"
	"github.com/carni-kridi/attar-backend/api/validators"
	"github.com/carni-kridi/attar-backend/internal/kridi"
	"github.com/carni-kridi/attar-backend/pkg/enums"
	pkgerrors "github.com/carni-kridi/attar-backend/pkg/errors"
	"github.com/carni-kridi/attar-backend/pkg/logger"
)

func kridiUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
}

// KridiList lists store entries filtered by type, status and a date range.
func KridiList(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}

		filter, err := parseStoreFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByStore(r.Context(), middleware.CallerFromContext(r.Context()), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseStoreFilter(r *http.Request) (kridi.StoreFilter, error) {
	var filter kridi.StoreFilter

	params, err := validators.ParsePagination(r)
	if err != nil {
		return filter, err
	}
	filter.Page = params

	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		t, err := enums.ParseEntryType(raw)
		if err != nil {
			return filter, pkgerrors.Validation("type must be debt or payment")
		}
		filter.Type = &t
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		s, err := enums.ParseEntryStatus(raw)
		if err != nil {
			return filter, pkgerrors.Validation("status must be unpaid, partial or paid")
		}
		filter.Status = &s
	}
	if filter.StartDate, err = validators.ParseQueryDate(r, "startDate", false); err != nil {
		return filter, err
	}
	if filter.EndDate, err = validators.ParseQueryDate(r, "endDate", true); err != nil {
		return filter, err
	}
	return filter, nil
}

func KridiCreate(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}

		var body kridi.AppendInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Append(r.Context(), middleware.CallerFromContext(r.Context()), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func KridiSummary(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		summary, err := svc.Summary(r.Context(), middleware.CallerFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func KridiRecent(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", kridi.DefaultRecentLimit, 1, kridi.MaxRecentLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.Recent(r.Context(), middleware.CallerFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func KridiByClient(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		clientID, err := validators.ParseUUIDParam(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListByClient(r.Context(), middleware.CallerFromContext(r.Context()), clientID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func KridiGet(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.Get(r.Context(), middleware.CallerFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func KridiUpdate(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body kridi.UpdateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Update(r.Context(), middleware.CallerFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// KridiPayment adds paidAmount to a debt entry.
func KridiPayment(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body kridi.PaymentInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.MarkPayment(r.Context(), middleware.CallerFromContext(r.Context()), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

func KridiDelete(svc kridi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			kridiUnavailable(w, r, logg)
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.CallerFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
