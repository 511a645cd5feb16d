package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hienohelma/storefront/internal/service"
	"github.com/hienohelma/storefront/pkg/httputil"
	"github.com/hienohelma/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID   string `json:"product_id" validate:"required,max=128"`
	VariationID string `json:"variation_id" validate:"omitempty,max=128"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	priced, err := h.service.GetPricedCart(r.Context(), cartIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, priced)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), cartIDFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	priced, err := h.service.AddItem(r.Context(), cartIDFromRequest(r), req.ProductID, req.VariationID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, priced)
}

// IncrementItem handles POST /api/v1/cart/items/{key}/increment
func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.service.IncrementQuantity)
}

// DecrementItem handles POST /api/v1/cart/items/{key}/decrement
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.service.DecrementQuantity)
}

// RemoveItem handles DELETE /api/v1/cart/items/{key}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, h.service.RemoveItem)
}

// Sync handles POST /api/v1/cart/sync
func (h *CartHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.SyncWithBackend(r.Context(), cartIDFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

type itemMutation func(ctx context.Context, cartID, key string) (*service.PricedCart, error)

func (h *CartHandler) mutateItem(w http.ResponseWriter, r *http.Request, fn itemMutation) {
	key := chi.URLParam(r, "key")
	if err := validator.Var(key, "itemkey"); err != nil {
		httputil.WriteValidationError(w, errors.New("invalid item key: "+key))
		return
	}

	priced, err := fn(r.Context(), cartIDFromRequest(r), key)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, priced)
}
