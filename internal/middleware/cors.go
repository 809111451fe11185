package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets the admin frontend call the API from origins. A single "*"
// allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", AuthTokenHeader},
		MaxAge:         600,
	})
	return c.Handler
}
