package http

import (
	"log/slog"
	"net/http"

	"github.com/hienohelma/storefront/internal/service"
	"github.com/hienohelma/storefront/pkg/httputil"
	"github.com/hienohelma/storefront/pkg/validator"
)

// PricingHandler exposes the pricing engine over HTTP.
type PricingHandler struct {
	service *service.PricingService
	logger  *slog.Logger
}

// NewPricingHandler creates a new pricing HTTP handler.
func NewPricingHandler(svc *service.PricingService, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{
		service: svc,
		logger:  logger,
	}
}

// Calculate handles POST /api/v1/pricing/calculate
func (h *PricingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req service.CalculateInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.service.Calculate(r.Context(), req))
}

// Price handles GET /api/v1/price?product_id=&variation_id=
func (h *PricingHandler) Price(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	price, err := h.service.Price(r.Context(), q.Get("product_id"), q.Get("variation_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, price)
}
