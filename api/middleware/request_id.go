package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stocktrailhq/stocktrail-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each request a correlation ID, echoes it in the
// response header, and attaches it to the request's log context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := inboundRequestID(r)
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// inboundRequestID trusts the caller's X-Request-Id only when it parses as
// a UUID, so a client cannot inject arbitrary text into the logs.
func inboundRequestID(r *http.Request) string {
	id := r.Header.Get(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		return uuid.NewString()
	}
	return id
}
