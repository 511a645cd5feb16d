package http

import (
	"log/slog"
	"net/http"

	"github.com/hienohelma/storefront/internal/service"
	"github.com/hienohelma/storefront/pkg/httputil"
	"github.com/hienohelma/storefront/pkg/middleware"
	"github.com/hienohelma/storefront/pkg/pagination"
)

// OrderHandler serves order history and shipping options.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  logger,
	}
}

// ListOrders handles GET /api/v1/customer/orders?page=&per_page=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), middleware.CustomerIDFromContext(r.Context()), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, orders)
}

// ShipmentMethods handles GET /api/v1/shipping/methods?postal_code=
func (h *OrderHandler) ShipmentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ShipmentMethods(r.Context(), r.URL.Query().Get("postal_code"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, methods)
}
