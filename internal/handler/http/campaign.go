package http

import (
	"log/slog"
	"net/http"

	"github.com/hienohelma/storefront/internal/service"
	"github.com/hienohelma/storefront/pkg/httputil"
)

// CampaignHandler serves the running campaigns and the cache refresh hook.
type CampaignHandler struct {
	service *service.PricingService
	logger  *slog.Logger
}

// NewCampaignHandler creates a new campaign HTTP handler.
func NewCampaignHandler(svc *service.PricingService, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		service: svc,
		logger:  logger,
	}
}

// List handles GET /api/v1/campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.ActiveCampaigns(r.Context()))
}

// Refresh handles POST /internal/store-config/refresh, called by the
// storefront when campaigns or payment settings change.
func (h *CampaignHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RefreshCampaigns(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}
