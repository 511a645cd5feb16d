// Package event publishes storefront domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/pricing"
	pkgkafka "github.com/hienohelma/storefront/pkg/kafka"
	"github.com/hienohelma/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicCartUpdated       = "storefront.cart.updated"
	TopicCartCleared       = "storefront.cart.cleared"
	TopicCheckoutInitiated = "storefront.checkout.initiated"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeCheckout = "checkout_session"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// Publisher is what the service layer needs to announce changes.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, cart *domain.Cart, priced *pricing.Result) error
	PublishCartCleared(ctx context.Context, cartID string) error
	PublishCheckoutInitiated(ctx context.Context, session *domain.CheckoutSession) error
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID    string `json:"product_id"`
	VariationID  string `json:"variation_id,omitempty"`
	Quantity     int    `json:"quantity"`
	PaidQuantity int    `json:"paid_quantity"`
	FreeQuantity int    `json:"free_quantity"`
	UnitPrice    int64  `json:"unit_price"`
	CampaignID   string `json:"campaign_id,omitempty"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	CartID           string         `json:"cart_id"`
	CustomerID       string         `json:"customer_id,omitempty"`
	Version          int            `json:"version"`
	Items            []CartItemData `json:"items"`
	ItemCount        int            `json:"item_count"`
	CartTotal        int64          `json:"cart_total"`
	OriginalTotal    int64          `json:"original_total"`
	TotalSavings     int64          `json:"total_savings"`
	AppliedCampaigns []string       `json:"applied_campaigns,omitempty"`
	Currency         string         `json:"currency"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	CartID string `json:"cart_id"`
}

// CheckoutInitiatedData is the payload for a checkout.initiated event.
type CheckoutInitiatedData struct {
	SessionID     string               `json:"session_id"`
	CartID        string               `json:"cart_id"`
	CustomerID    string               `json:"customer_id,omitempty"`
	Provider      domain.PaymentMethod `json:"provider"`
	Status        string               `json:"status"`
	OriginalTotal int64                `json:"original_total"`
	DiscountTotal int64                `json:"discount_total"`
	TotalAmount   int64                `json:"total_amount"`
	Currency      string               `json:"currency"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event carrying the priced
// totals.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart, priced *pricing.Result) error {
	data := CartUpdatedData{
		CartID:           cart.ID,
		CustomerID:       logger.CustomerIDFromContext(ctx),
		Version:          cart.Version,
		Items:            make([]CartItemData, 0, len(priced.CalculatedItems)),
		ItemCount:        cart.ItemCount(),
		CartTotal:        priced.CartTotal,
		OriginalTotal:    priced.OriginalTotal,
		TotalSavings:     priced.TotalSavings,
		AppliedCampaigns: priced.AppliedCampaigns,
		Currency:         cart.Currency,
	}
	for _, ci := range priced.CalculatedItems {
		data.Items = append(data.Items, CartItemData{
			ProductID:    ci.Item.Product.ID,
			VariationID:  ci.Item.VariationID(),
			Quantity:     ci.Item.CartQuantity,
			PaidQuantity: ci.PaidQuantity,
			FreeQuantity: ci.FreeQuantity,
			UnitPrice:    ci.UnitPrice,
			CampaignID:   ci.CampaignID,
		})
	}

	if err := p.publish(ctx, TopicCartUpdated, pkgkafka.Aggregate{Type: AggregateTypeCart, ID: cart.ID}, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("cart_id", cart.ID),
		slog.Int("item_count", data.ItemCount),
		slog.Int64("cart_total", data.CartTotal),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, cartID string) error {
	return p.publish(ctx, TopicCartCleared, pkgkafka.Aggregate{Type: AggregateTypeCart, ID: cartID}, CartClearedData{CartID: cartID})
}

// PublishCheckoutInitiated publishes a checkout.initiated event.
func (p *Producer) PublishCheckoutInitiated(ctx context.Context, s *domain.CheckoutSession) error {
	data := CheckoutInitiatedData{
		SessionID:     s.ID,
		CartID:        s.CartID,
		CustomerID:    s.CustomerID,
		Provider:      s.Provider,
		Status:        s.Status,
		OriginalTotal: s.OriginalTotal,
		DiscountTotal: s.DiscountTotal,
		TotalAmount:   s.TotalAmount,
		Currency:      s.Currency,
	}
	return p.publish(ctx, TopicCheckoutInitiated, pkgkafka.Aggregate{Type: AggregateTypeCheckout, ID: s.ID}, data)
}

func (p *Producer) publish(ctx context.Context, topic string, agg pkgkafka.Aggregate, data any) error {
	evt, err := pkgkafka.NewEvent(topic, agg, SourceStorefront, data,
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)),
		pkgkafka.WithMetadata("cart_id", logger.CartIDFromContext(ctx)),
	)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// NopPublisher discards events. Used when Kafka is disabled.
type NopPublisher struct{}

// PublishCartUpdated implements Publisher.
func (NopPublisher) PublishCartUpdated(context.Context, *domain.Cart, *pricing.Result) error {
	return nil
}

// PublishCartCleared implements Publisher.
func (NopPublisher) PublishCartCleared(context.Context, string) error { return nil }

// PublishCheckoutInitiated implements Publisher.
func (NopPublisher) PublishCheckoutInitiated(context.Context, *domain.CheckoutSession) error {
	return nil
}
