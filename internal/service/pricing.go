package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/pricing"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

// CalculateInput is a stateless pricing request. When Campaigns is nil the
// store's active campaigns are used; an empty list prices without campaigns.
type CalculateInput struct {
	Items     []domain.LineItem `json:"items" validate:"max=200,dive"`
	Campaigns []domain.Campaign `json:"campaigns"`
	// At evaluates sales and campaign windows at this instant instead of now.
	At *time.Time `json:"at"`
}

// ProductPrice is the display price of one product or variation.
type ProductPrice struct {
	ProductID       string            `json:"product_id"`
	VariationID     string            `json:"variation_id,omitempty"`
	Price           pricing.PriceInfo `json:"price"`
	UnitPrice       int64             `json:"unit_price"`
	DiscountPercent *int              `json:"discount_percent,omitempty"`
}

// CampaignRefresher drops cached campaign data so the next read is fresh.
type CampaignRefresher interface {
	Refresh(ctx context.Context) error
}

// PricingService exposes the pricing engine without a stored cart.
type PricingService struct {
	products  ProductFetcher
	campaigns CampaignProvider
	logger    *slog.Logger
	now       func() time.Time
}

// NewPricingService creates a new pricing service.
func NewPricingService(products ProductFetcher, campaigns CampaignProvider, logger *slog.Logger) *PricingService {
	return &PricingService{
		products:  products,
		campaigns: campaigns,
		logger:    logger,
		now:       time.Now,
	}
}

// Calculate prices an arbitrary cart snapshot.
func (s *PricingService) Calculate(ctx context.Context, input CalculateInput) pricing.Result {
	now := s.now()
	if input.At != nil {
		now = *input.At
	}

	campaigns := input.Campaigns
	if campaigns == nil {
		campaigns = s.campaigns.Active(ctx, now)
	}

	res := calculate(ctx, sourceStateless, input.Items, campaigns, now)

	if len(res.SkippedCampaigns) > 0 || len(res.ExcludedItems) > 0 {
		s.logger.DebugContext(ctx, "pricing degraded",
			slog.Int("skipped_campaigns", len(res.SkippedCampaigns)),
			slog.Int("excluded_items", len(res.ExcludedItems)),
		)
	}
	return res
}

// Price resolves the current price of a product, or of one of its variations.
func (s *PricingService) Price(ctx context.Context, productID, variationID string) (*ProductPrice, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	var variation *domain.Variation
	if variationID != "" {
		if variation = product.FindVariation(variationID); variation == nil {
			return nil, apperrors.NotFound("variation", variationID)
		}
	}

	info := pricing.ResolvePrice(product, variation, s.now())
	out := &ProductPrice{
		ProductID:   productID,
		VariationID: variationID,
		Price:       info,
		UnitPrice:   info.UnitPrice(),
	}
	if pct, ok := info.DiscountPercent(); ok {
		out.DiscountPercent = &pct
	}
	return out, nil
}

// ActiveCampaigns returns the campaigns running now, in store order.
func (s *PricingService) ActiveCampaigns(ctx context.Context) []domain.Campaign {
	campaigns := s.campaigns.Active(ctx, s.now())
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	return campaigns
}

// RefreshCampaigns invalidates cached campaigns when the provider caches
// them. Providers without a cache make this a no-op.
func (s *PricingService) RefreshCampaigns(ctx context.Context) error {
	refresher, ok := s.campaigns.(CampaignRefresher)
	if !ok {
		return nil
	}
	if err := refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh campaigns: %w", err)
	}
	s.logger.InfoContext(ctx, "campaign cache invalidated")
	return nil
}
