package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// defaultOrigin is the local frontend dev server.
const defaultOrigin = "http://localhost:3000"

// CORS allows exactly one frontend origin: the configured client URL, or
// the local dev server when none is set. Credentials are allowed because
// the frontend sends the bearer token on every call.
func CORS(clientURL string) func(http.Handler) http.Handler {
	origin := clientURL
	if origin == "" {
		origin = defaultOrigin
	}
	return cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
