package service

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/pricing"
	"github.com/hienohelma/storefront/pkg/tracing"
)

var (
	pricingCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_pricing_calculations_total",
			Help: "Total number of cart pricing calculations",
		},
		[]string{"source", "discounted"},
	)

	campaignSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_campaign_skipped_total",
			Help: "Total number of campaigns skipped during pricing",
		},
		[]string{"reason"},
	)
)

// Pricing sources.
const (
	sourceCart      = "cart"
	sourceStateless = "stateless"
)

func observePricing(source string, res *pricing.Result) {
	discounted := "false"
	if res.TotalSavings > 0 {
		discounted = "true"
	}
	pricingCalculationsTotal.WithLabelValues(source, discounted).Inc()
	for _, s := range res.SkippedCampaigns {
		// Reasons carry campaign details after the colon; keep the label bounded.
		reason, _, _ := strings.Cut(s.Reason, ":")
		campaignSkippedTotal.WithLabelValues(reason).Inc()
	}
}

// calculate runs the pricing engine inside a span and records its outcome.
func calculate(ctx context.Context, source string, items []domain.LineItem, campaigns []domain.Campaign, now time.Time) pricing.Result {
	_, span := tracing.Start(ctx, "pricing.Calculate",
		attribute.String("pricing.source", source),
		attribute.Int("pricing.items", len(items)),
		attribute.Int("pricing.campaigns", len(campaigns)),
	)
	defer span.End()

	res := pricing.Calculate(items, campaigns, now)
	span.SetAttributes(
		attribute.Int64("pricing.cart_total", res.CartTotal),
		attribute.Int64("pricing.total_savings", res.TotalSavings),
		attribute.Int("pricing.skipped_campaigns", len(res.SkippedCampaigns)),
	)
	observePricing(source, &res)
	return res
}
