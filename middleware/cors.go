package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS lets the browser client call the API from another origin. It must wrap
// the router from outside so preflight OPTIONS requests never reach route
// matching.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Accept", "Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)
}
