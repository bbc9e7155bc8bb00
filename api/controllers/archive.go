package controllers

import (
	"net/http"

	"github.com/angelmondragon/belldesk-backend/api/responses"
	"github.com/angelmondragon/belldesk-backend/api/validators"
	"github.com/angelmondragon/belldesk-backend/internal/luggage"
	"github.com/angelmondragon/belldesk-backend/pkg/logger"
)

// ArchiveQuery filters archivio-dedicato by exact delivery date and a
// case-insensitive guest/room substring.
func ArchiveQuery(svc luggage.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := luggage.ArchiveQuery{
			Date:   validators.QueryString(r, "date"),
			Filter: validators.QueryString(r, "filter"),
		}
		entries, err := svc.QueryArchive(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func ArchiveCreate(svc luggage.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input luggage.TaskInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.CreateArchiveEntry(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}
