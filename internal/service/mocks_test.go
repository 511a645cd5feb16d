package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/pricing"
	"github.com/hienohelma/storefront/internal/storefront"
)

// --- Mock Repositories ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) error {
	args := m.Called(ctx, cart, expected)
	if err := args.Error(0); err != nil {
		return err
	}
	cart.Version = expected + 1
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, cartID string) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type mockCheckoutRepository struct {
	mock.Mock
}

func (m *mockCheckoutRepository) Create(ctx context.Context, s *domain.CheckoutSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockCheckoutRepository) GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *mockCheckoutRepository) Update(ctx context.Context, s *domain.CheckoutSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockCheckoutRepository) ListByCart(ctx context.Context, cartID string) ([]domain.CheckoutSession, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CheckoutSession), args.Error(1)
}

// --- Mock Storefront ---

type mockStorefront struct {
	mock.Mock
}

func (m *mockStorefront) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockStorefront) GetOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockStorefront) GetShipmentMethods(ctx context.Context, postalCode string) ([]domain.ShipmentMethod, error) {
	args := m.Called(ctx, postalCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ShipmentMethod), args.Error(1)
}

func (m *mockStorefront) CreatePaytrailPayment(ctx context.Context, req storefront.PaymentRequest) (*domain.PaymentOptions, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentOptions), args.Error(1)
}

func (m *mockStorefront) CreateStripeCheckout(ctx context.Context, req storefront.PaymentRequest) (*domain.PaymentOptions, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentOptions), args.Error(1)
}

func (m *mockStorefront) StoreConfig(ctx context.Context) (*domain.StoreConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoreConfig), args.Error(1)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCartUpdated(ctx context.Context, cart *domain.Cart, priced *pricing.Result) error {
	args := m.Called(ctx, cart, priced)
	return args.Error(0)
}

func (m *mockPublisher) PublishCartCleared(ctx context.Context, cartID string) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *mockPublisher) PublishCheckoutInitiated(ctx context.Context, s *domain.CheckoutSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// staticCampaigns serves a fixed campaign list.
type staticCampaigns []domain.Campaign

func (c staticCampaigns) Active(context.Context, time.Time) []domain.Campaign {
	return c
}

// refreshableCampaigns is a campaign provider with a cache to drop.
type refreshableCampaigns struct {
	staticCampaigns
	refreshed int
	err       error
}

func (c *refreshableCampaigns) Refresh(context.Context) error {
	c.refreshed++
	return c.err
}

// --- Test Helpers ---

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func buy3pay2All() domain.Campaign {
	return domain.Campaign{
		ID:          "b3p2",
		Name:        "Buy 3 pay 2",
		Type:        domain.CampaignTypeBuyXPayY,
		BuyXPayY:    &domain.BuyXPayY{BuyQuantity: 3, PayQuantity: 2},
		Eligibility: domain.Eligibility{All: true},
	}
}

func testProduct(id string, price int64, stock *int) *domain.Product {
	return &domain.Product{ID: id, Name: "Product " + id, Price: price, Quantity: stock}
}

func cartWith(items ...domain.LineItem) *domain.Cart {
	return &domain.Cart{
		ID:        "cart-1",
		Items:     items,
		Currency:  "EUR",
		Version:   4,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}
