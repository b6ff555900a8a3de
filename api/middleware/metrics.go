package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocktrailhq/stocktrail-backend/pkg/metrics"
)

// Metrics records request duration and counts labeled by the matched chi
// route pattern, so path parameters do not explode the label space.
func Metrics(httpMx *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if httpMx == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			httpMx.Observe(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
