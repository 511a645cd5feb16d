package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/event"
	"github.com/hienohelma/storefront/internal/repository"
	"github.com/hienohelma/storefront/internal/storefront"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
	"github.com/hienohelma/storefront/pkg/tracing"
	"github.com/hienohelma/storefront/pkg/validator"
)

// PaymentGateway creates payments at the storefront's payment providers.
type PaymentGateway interface {
	CreatePaytrailPayment(ctx context.Context, req storefront.PaymentRequest) (*domain.PaymentOptions, error)
	CreateStripeCheckout(ctx context.Context, req storefront.PaymentRequest) (*domain.PaymentOptions, error)
}

// StoreConfigProvider returns the current store configuration.
type StoreConfigProvider interface {
	StoreConfig(ctx context.Context) (*domain.StoreConfig, error)
}

// CheckoutInput is what the customer submits to start a checkout.
type CheckoutInput struct {
	Customer         domain.CustomerDetails `json:"customer"`
	ShipmentMethodID string                 `json:"shipment_method_id" validate:"required,max=100"`
	PickupLocationID string                 `json:"pickup_location_id,omitempty" validate:"omitempty,max=100"`
}

// CheckoutService hands priced carts over to a payment provider.
type CheckoutService struct {
	carts     *CartService
	sessions  repository.CheckoutRepository
	store     StoreConfigProvider
	shipping  ShipmentFetcher
	payments  PaymentGateway
	publisher event.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts *CartService,
	sessions repository.CheckoutRepository,
	store StoreConfigProvider,
	shipping ShipmentFetcher,
	payments PaymentGateway,
	publisher event.Publisher,
	logger *slog.Logger,
) *CheckoutService {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &CheckoutService{
		carts:     carts,
		sessions:  sessions,
		store:     store,
		shipping:  shipping,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// InitiateCheckout refreshes the cart against the storefront, records a
// checkout session and creates a payment for the cart total. customerID is
// empty for guest checkouts.
//
// The cart is synced first so the charge reflects current prices and stock.
// If the sync drops or clamps a line the checkout is refused with a conflict,
// and the customer reviews the cart before trying again.
//
// The session is stored before the provider is called, so a provider failure
// leaves a failed session behind rather than nothing.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, cartID, customerID string, input CheckoutInput) (_ *domain.CheckoutSession, err error) {
	ctx, span := tracing.Start(ctx, "checkout.Initiate", attribute.String("cart.id", cartID))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	synced, err := s.carts.SyncWithBackend(ctx, cartID)
	if err != nil {
		return nil, err
	}
	priced := synced.PricedCart
	if len(priced.Pricing.CalculatedItems) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}
	if len(synced.Removed) > 0 || len(synced.Adjusted) > 0 {
		s.logger.InfoContext(ctx, "checkout refused, cart changed on sync",
			slog.String("cart_id", cartID),
			slog.Any("removed", synced.Removed),
			slog.Any("adjusted", synced.Adjusted),
		)
		return nil, apperrors.Conflict("cart changed since it was last viewed, review it before checking out")
	}

	shipment, err := s.selectShipment(ctx, input)
	if err != nil {
		return nil, err
	}

	cfg, err := s.store.StoreConfig(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "store configuration unavailable for checkout",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PaymentUnavailable("payment configuration is unavailable")
	}
	method, ok := cfg.PreferredPaymentMethod()
	if !ok {
		return nil, apperrors.PaymentUnavailable("no payment method is enabled")
	}

	currency := priced.Cart.Currency
	if cfg.Currency != "" {
		currency = cfg.Currency
	}

	now := s.now().UTC()
	session := &domain.CheckoutSession{
		ID:            uuid.New().String(),
		CartID:        cartID,
		CustomerID:    customerID,
		Provider:      method,
		Status:        domain.CheckoutStatusInitiated,
		Items:         checkoutItems(priced),
		OriginalTotal: priced.Pricing.OriginalTotal,
		DiscountTotal: priced.Pricing.TotalSavings,
		TotalAmount:   priced.Pricing.CartTotal,
		Currency:      currency,
		Customer:      &input.Customer,
		Shipment:      shipment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	opts, payErr := s.createPayment(ctx, method, storefront.PaymentRequest{
		Reference:   session.ID,
		CustomerID:  customerID,
		Currency:    currency,
		TotalAmount: session.TotalAmount,
		Items:       session.Items,
		Customer:    storefront.NewPaymentCustomer(session.Customer),
		Shipment:    storefront.NewPaymentShipment(session.Shipment),
	})

	session.UpdatedAt = s.now().UTC()
	if payErr != nil {
		session.Status = domain.CheckoutStatusFailed
		session.FailureReason = payErr.Error()
	} else {
		session.Status = domain.CheckoutStatusRedirected
		session.Payment = opts
		session.RedirectURL = opts.URL
		session.ProviderRef = opts.Reference
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to update checkout session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	if payErr != nil {
		s.logger.WarnContext(ctx, "payment creation failed",
			slog.String("session_id", session.ID),
			slog.String("provider", string(method)),
			slog.String("error", payErr.Error()),
		)
		return nil, payErr
	}

	if err := s.publisher.PublishCheckoutInitiated(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.initiated event",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	span.SetAttributes(
		attribute.String("checkout.session_id", session.ID),
		attribute.String("checkout.provider", string(method)),
		attribute.Int64("checkout.total_amount", session.TotalAmount),
	)
	s.logger.InfoContext(ctx, "checkout initiated",
		slog.String("session_id", session.ID),
		slog.String("cart_id", cartID),
		slog.String("provider", string(method)),
		slog.Int64("total_amount", session.TotalAmount),
		slog.String("shipment_method", shipment.MethodID),
	)
	return session, nil
}

// GetCheckoutSession retrieves a checkout session by ID.
func (s *CheckoutService) GetCheckoutSession(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("checkout session id is required")
	}
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return session, nil
}

// ListCartSessions returns the checkout attempts made for a cart, newest
// first. Sessions belonging to another signed-in customer are left out.
func (s *CheckoutService) ListCartSessions(ctx context.Context, cartID, customerID string) ([]domain.CheckoutSession, error) {
	sessions, err := s.sessions.ListByCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("list checkout sessions: %w", err)
	}

	visible := make([]domain.CheckoutSession, 0, len(sessions))
	for i := range sessions {
		if sessions[i].CustomerID == "" || sessions[i].CustomerID == customerID {
			visible = append(visible, sessions[i])
		}
	}
	return visible, nil
}

// selectShipment resolves the chosen shipment method against the methods the
// storefront offers for the customer's postal code.
func (s *CheckoutService) selectShipment(ctx context.Context, input CheckoutInput) (*domain.ShipmentSelection, error) {
	methods, err := s.shipping.GetShipmentMethods(ctx, input.Customer.PostalCode)
	if err != nil {
		return nil, fmt.Errorf("get shipment methods: %w", err)
	}

	for i := range methods {
		m := &methods[i]
		if m.ID != input.ShipmentMethodID {
			continue
		}
		sel := &domain.ShipmentSelection{MethodID: m.ID, Name: m.Name, Price: m.Price}
		if len(m.Locations) == 0 {
			return sel, nil
		}
		if input.PickupLocationID == "" {
			return nil, apperrors.InvalidInput("pickup_location_id is required for this shipment method")
		}
		for _, loc := range m.Locations {
			if loc.ID == input.PickupLocationID {
				sel.PickupLocationID = loc.ID
				return sel, nil
			}
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("pickup location %q is not offered by %s", input.PickupLocationID, m.ID))
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("shipment method %q is not available for postal code %s",
		input.ShipmentMethodID, input.Customer.PostalCode))
}

func (s *CheckoutService) createPayment(ctx context.Context, method domain.PaymentMethod, req storefront.PaymentRequest) (*domain.PaymentOptions, error) {
	switch method {
	case domain.PaymentMethodPaytrail:
		return s.payments.CreatePaytrailPayment(ctx, req)
	case domain.PaymentMethodStripe:
		return s.payments.CreateStripeCheckout(ctx, req)
	default:
		return nil, apperrors.PaymentUnavailable(fmt.Sprintf("unsupported payment method %q", method))
	}
}

func checkoutItems(priced *PricedCart) []domain.CheckoutItem {
	items := make([]domain.CheckoutItem, 0, len(priced.Pricing.CalculatedItems))
	for _, ci := range priced.Pricing.CalculatedItems {
		items = append(items, domain.CheckoutItem{
			ProductID:    ci.Item.Product.ID,
			VariationID:  ci.Item.VariationID(),
			Name:         ci.Item.Product.Name,
			UnitPrice:    ci.UnitPrice,
			Quantity:     ci.Item.CartQuantity,
			PaidQuantity: ci.PaidQuantity,
			FreeQuantity: ci.FreeQuantity,
			LineTotal:    ci.LineSubtotalPaid,
		})
	}
	return items
}
