package controllers

import (
	"net/http"

	"github.com/stocktrailhq/stocktrail-backend/api/responses"
	"github.com/stocktrailhq/stocktrail-backend/api/validators"
	"github.com/stocktrailhq/stocktrail-backend/internal/activity"
	pkgerrors "github.com/stocktrailhq/stocktrail-backend/pkg/errors"
	"github.com/stocktrailhq/stocktrail-backend/pkg/logger"
)

// ActivityList returns recent audit rows. Admin only (enforced by the
// route's middleware).
func ActivityList(recorder *activity.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := recorder.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list activity"))
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
