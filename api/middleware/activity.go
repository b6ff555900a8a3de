package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stocktrailhq/stocktrail-backend/internal/activity"
)

// ActivityLog records successful mutating requests for the audit trail.
// Reads are not logged. The recorder writes asynchronously, so this adds no
// latency to the request path.
func ActivityLog(recorder *activity.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusBadRequest {
				return
			}

			userID, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				return
			}

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			action := fmt.Sprintf("%s %s", r.Method, route)
			ip := clientIP(r)
			userAgent := r.UserAgent()

			entry := activity.Entry{
				UserID: userID,
				Action: action,
			}
			if ip != "" {
				entry.IPAddress = &ip
			}
			if userAgent != "" {
				entry.UserAgent = &userAgent
			}
			recorder.Record(entry)
		})
	}
}
