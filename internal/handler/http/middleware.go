package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "github.com/hienohelma/storefront/pkg/errors"
	"github.com/hienohelma/storefront/pkg/httputil"
	"github.com/hienohelma/storefront/pkg/logger"
	"github.com/hienohelma/storefront/pkg/middleware"
)

// RequireCartID rejects requests without a valid X-Cart-ID header and stores
// the cart id in the request context.
func RequireCartID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(middleware.CartIDHeader)
		if raw == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: middleware.CartIDHeader + " header is required"},
			})
			return
		}
		id, ok := httputil.ParseUUID(w, middleware.CartIDHeader, raw)
		if !ok {
			return
		}
		ctx := logger.WithCartID(r.Context(), id.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cartIDFromRequest returns the cart id stored by RequireCartID.
func cartIDFromRequest(r *http.Request) string {
	return logger.CartIDFromContext(r.Context())
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// APIKeyHeader carries the shared secret of server-to-server calls.
const APIKeyHeader = "X-Api-Key"

// RequireAPIKey admits only requests presenting key in the X-Api-Key header.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid api key"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
