package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the vendor dashboard call the API from the configured origins.
// Webhooks are server to server and unaffected. With no origins configured
// cross-origin requests are left to the browser's default policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
