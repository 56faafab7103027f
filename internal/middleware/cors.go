package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

const corsMaxAge = 86400

// CORS allows the configured origins to call the API with credentials. No
// origins means no cross-origin access.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
	return c.Handler
}
