package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl sets a public max-age Cache-Control header on GET responses.
func CacheControl(maxAge int) func(http.Handler) http.Handler {
	return CacheDirective(fmt.Sprintf("public, max-age=%d", maxAge))
}

// NoStore marks responses as uncacheable. Carts and checkout sessions are
// per-shopper and must never be served from a shared cache.
func NoStore() func(http.Handler) http.Handler {
	return CacheDirective("no-store")
}

// CacheDirective sets the given Cache-Control directive on GET responses.
func CacheDirective(directive string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", directive)
			}
			next.ServeHTTP(w, r)
		})
	}
}
