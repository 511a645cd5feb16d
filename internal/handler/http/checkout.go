package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hienohelma/storefront/internal/service"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
	"github.com/hienohelma/storefront/pkg/httputil"
	"github.com/hienohelma/storefront/pkg/middleware"
	"github.com/hienohelma/storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout endpoints.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// Initiate handles POST /api/v1/checkout
func (h *CheckoutHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	customerID := middleware.CustomerIDFromContext(r.Context())

	session, err := h.service.InitiateCheckout(r.Context(), cartIDFromRequest(r), customerID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, session)
}

// ListForCart handles GET /api/v1/checkout
func (h *CheckoutHandler) ListForCart(w http.ResponseWriter, r *http.Request) {
	customerID := middleware.CustomerIDFromContext(r.Context())

	sessions, err := h.service.ListCartSessions(r.Context(), cartIDFromRequest(r), customerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/v1/checkout/{id}
//
// Sessions created by a signed-in customer are only visible to that customer.
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	session, err := h.service.GetCheckoutSession(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if session.CustomerID != "" && session.CustomerID != middleware.CustomerIDFromContext(r.Context()) {
		httputil.WriteError(w, r, apperrors.NotFound("checkout_session", id.String()), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, session)
}
