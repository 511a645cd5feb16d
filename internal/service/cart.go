package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/event"
	"github.com/hienohelma/storefront/internal/pricing"
	"github.com/hienohelma/storefront/internal/repository"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// DefaultMaxItemsPerCart is the maximum number of distinct line items.
	DefaultMaxItemsPerCart = 50
	// DefaultMaxQuantityPerItem is the maximum quantity of a single line item.
	DefaultMaxQuantityPerItem = 100
	// DefaultCurrency is used for carts created before the store currency is known.
	DefaultCurrency = "EUR"
)

// ProductFetcher loads the current product snapshot from the storefront.
type ProductFetcher interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

// CampaignProvider returns the campaigns active at a point in time.
type CampaignProvider interface {
	Active(ctx context.Context, now time.Time) []domain.Campaign
}

// CartOptions tunes the cart service.
type CartOptions struct {
	MaxItems    int
	MaxQuantity int
	TTL         time.Duration
	Currency    string
}

// PricedCart is a cart together with its freshly calculated pricing.
type PricedCart struct {
	Cart    *domain.Cart   `json:"cart"`
	Pricing pricing.Result `json:"pricing"`
}

// SyncResult reports what a sync against the storefront changed.
type SyncResult struct {
	*PricedCart
	Removed  []string `json:"removed,omitempty"`
	Adjusted []string `json:"adjusted,omitempty"`
}

// CartService implements the business logic for cart operations.
type CartService struct {
	repo      repository.CartRepository
	products  ProductFetcher
	campaigns CampaignProvider
	publisher event.Publisher
	opts      CartOptions
	logger    *slog.Logger
	now       func() time.Time
}

// NewCartService creates a new cart service. Zero options fall back to the
// package defaults.
func NewCartService(
	repo repository.CartRepository,
	products ProductFetcher,
	campaigns CampaignProvider,
	publisher event.Publisher,
	opts CartOptions,
	logger *slog.Logger,
) *CartService {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItemsPerCart
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = DefaultMaxQuantityPerItem
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.Currency == "" {
		opts.Currency = DefaultCurrency
	}
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &CartService{
		repo:      repo,
		products:  products,
		campaigns: campaigns,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// GetCart retrieves a cart. A missing cart is returned as a new empty cart.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	if cartID == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}

	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(cartID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// GetPricedCart retrieves a cart and prices it against the active campaigns.
func (s *CartService) GetPricedCart(ctx context.Context, cartID string) (*PricedCart, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart), nil
}

// AddItem adds one unit of a product (or one of its variations) to the cart.
// Adding a pair already in the cart increments its quantity.
func (s *CartService) AddItem(ctx context.Context, cartID, productID, variationID string) (*PricedCart, error) {
	if cartID == "" {
		return nil, apperrors.InvalidInput("cart id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	var variation *domain.Variation
	if variationID != "" {
		variation = product.FindVariation(variationID)
		if variation == nil {
			return nil, apperrors.NotFound("variation", variationID)
		}
	}

	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	item := domain.LineItem{Product: *product, Variation: variation, CartQuantity: 1}
	if err := s.checkStock(cart, &item); err != nil {
		return nil, err
	}

	if idx := cart.FindItemIndex(productID, variationID); idx >= 0 {
		existing := &cart.Items[idx]
		if existing.CartQuantity+1 > s.opts.MaxQuantity {
			return nil, apperrors.CartLimitExceeded(fmt.Sprintf("quantity must not exceed %d", s.opts.MaxQuantity))
		}
		existing.Product = *product
		existing.Variation = variation
		existing.CartQuantity++
	} else {
		if len(cart.Items) >= s.opts.MaxItems {
			return nil, apperrors.CartLimitExceeded(fmt.Sprintf("cart must not contain more than %d items", s.opts.MaxItems))
		}
		cart.Items = append(cart.Items, item)
	}

	priced, err := s.save(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("cart_id", cartID),
		slog.String("product_id", productID),
		slog.String("variation_id", variationID),
	)
	return priced, nil
}

// IncrementQuantity adds one unit to an existing line item.
func (s *CartService) IncrementQuantity(ctx context.Context, cartID, key string) (*PricedCart, error) {
	cart, idx, err := s.loadItem(ctx, cartID, key)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version

	item := &cart.Items[idx]
	if err := s.checkStock(cart, item); err != nil {
		return nil, err
	}
	if item.CartQuantity+1 > s.opts.MaxQuantity {
		return nil, apperrors.CartLimitExceeded(fmt.Sprintf("quantity must not exceed %d", s.opts.MaxQuantity))
	}
	item.CartQuantity++

	return s.save(ctx, cart, expectedVersion)
}

// DecrementQuantity removes one unit from a line item. The quantity never
// drops below 1; use RemoveItem to delete the line.
func (s *CartService) DecrementQuantity(ctx context.Context, cartID, key string) (*PricedCart, error) {
	cart, idx, err := s.loadItem(ctx, cartID, key)
	if err != nil {
		return nil, err
	}
	if cart.Items[idx].CartQuantity <= 1 {
		return s.price(ctx, cart), nil
	}
	expectedVersion := cart.Version
	cart.Items[idx].CartQuantity--

	return s.save(ctx, cart, expectedVersion)
}

// RemoveItem deletes a line item from the cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID, key string) (*PricedCart, error) {
	cart, idx, err := s.loadItem(ctx, cartID, key)
	if err != nil {
		return nil, err
	}
	expectedVersion := cart.Version
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	priced, err := s.save(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("cart_id", cartID),
		slog.String("item_key", key),
	)
	return priced, nil
}

// ClearCart removes the cart entirely.
func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	if cartID == "" {
		return apperrors.InvalidInput("cart id is required")
	}

	if err := s.repo.Delete(ctx, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.publisher.PublishCartCleared(ctx, cartID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("cart_id", cartID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared", slog.String("cart_id", cartID))
	return nil
}

// SyncWithBackend refreshes every line item's product snapshot from the
// storefront. Products or variations that no longer exist are removed and
// quantities are clamped to the available stock. A product that cannot be
// fetched for any other reason keeps its previous snapshot.
func (s *CartService) SyncWithBackend(ctx context.Context, cartID string) (*SyncResult, error) {
	cart, err := s.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return &SyncResult{PricedCart: s.price(ctx, cart)}, nil
	}
	expectedVersion := cart.Version

	var removed, adjusted []string
	kept := make([]domain.LineItem, 0, len(cart.Items))
	fetched := make(map[string]*domain.Product)

	for _, item := range cart.Items {
		key := item.Key()

		product, ok := fetched[item.Product.ID]
		if !ok {
			p, err := s.products.GetProduct(ctx, item.Product.ID)
			switch {
			case errors.Is(err, apperrors.ErrNotFound):
				p = nil
			case err != nil:
				if errors.Is(err, context.Canceled) {
					return nil, err
				}
				s.logger.WarnContext(ctx, "keeping stale product snapshot",
					slog.String("cart_id", cartID),
					slog.String("product_id", item.Product.ID),
					slog.String("error", err.Error()),
				)
				kept = append(kept, item)
				continue
			}
			fetched[item.Product.ID] = p
			product = p
		}
		if product == nil {
			removed = append(removed, key)
			continue
		}

		item.Product = *product
		if vid := item.VariationID(); vid != "" {
			item.Variation = product.FindVariation(vid)
			if item.Variation == nil {
				removed = append(removed, key)
				continue
			}
		}

		if stock := item.StockQuantity(); stock != nil && item.CartQuantity > *stock {
			if *stock <= 0 {
				removed = append(removed, key)
				continue
			}
			item.CartQuantity = *stock
			adjusted = append(adjusted, key)
		}
		kept = append(kept, item)
	}
	cart.Items = kept

	priced, err := s.save(ctx, cart, expectedVersion)
	if err != nil {
		return nil, err
	}

	if len(removed) > 0 || len(adjusted) > 0 {
		s.logger.InfoContext(ctx, "cart synced with storefront",
			slog.String("cart_id", cartID),
			slog.Int("removed", len(removed)),
			slog.Int("adjusted", len(adjusted)),
		)
	}
	return &SyncResult{PricedCart: priced, Removed: removed, Adjusted: adjusted}, nil
}

// checkStock rejects adding one more unit of item when the cart already holds
// the available stock. Without a selected variation every variation of the
// product counts toward the product's stock.
func (s *CartService) checkStock(cart *domain.Cart, item *domain.LineItem) error {
	stock := item.StockQuantity()
	if stock == nil {
		return nil
	}
	if cart.QuantityOf(item.Product.ID, item.VariationID()) >= *stock {
		if *stock <= 0 {
			return apperrors.CartLimitExceeded("product is out of stock")
		}
		return apperrors.CartLimitExceeded(fmt.Sprintf("only %d in stock", *stock))
	}
	return nil
}

func (s *CartService) loadItem(ctx context.Context, cartID, key string) (*domain.Cart, int, error) {
	if cartID == "" {
		return nil, -1, apperrors.InvalidInput("cart id is required")
	}
	if key == "" {
		return nil, -1, apperrors.InvalidInput("item key is required")
	}

	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, -1, err
		}
		return nil, -1, fmt.Errorf("get cart: %w", err)
	}

	idx := cart.FindItemByKey(key)
	if idx < 0 {
		return nil, -1, apperrors.NotFound("cart item", key)
	}
	return cart, idx, nil
}

// save persists the cart with optimistic locking, prices it and announces the
// change.
func (s *CartService) save(ctx context.Context, cart *domain.Cart, expectedVersion int) (*PricedCart, error) {
	now := s.now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.opts.TTL)

	if err := s.repo.SaveIfVersion(ctx, cart, expectedVersion); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	priced := s.price(ctx, cart)
	if err := s.publisher.PublishCartUpdated(ctx, cart, &priced.Pricing); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("cart_id", cart.ID),
			slog.String("error", err.Error()),
		)
	}
	return priced, nil
}

func (s *CartService) price(ctx context.Context, cart *domain.Cart) *PricedCart {
	now := s.now()
	res := calculate(ctx, sourceCart, cart.Items, s.campaigns.Active(ctx, now), now)
	return &PricedCart{Cart: cart, Pricing: res}
}

func (s *CartService) newEmptyCart(cartID string) *domain.Cart {
	now := s.now().UTC()
	return &domain.Cart{
		ID:        cartID,
		Items:     []domain.LineItem{},
		Currency:  s.opts.Currency,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.opts.TTL),
	}
}
