package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hienohelma/storefront/pkg/logger"
)

// CartIDHeader identifies the shopper's cart.
const CartIDHeader = "X-Cart-ID"

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// customer_id, cart_id, trace_id and span_id and stores it in the context,
// where handlers fetch it with logger.FromContext.
//
// Mount it after RequestLogging and Tracing, and after auth when the
// customer id should be included.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if id := r.Header.Get(CartIDHeader); id != "" && logger.CartIDFromContext(ctx) == "" {
				ctx = logger.WithCartID(ctx, id)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
