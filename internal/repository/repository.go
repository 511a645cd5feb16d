// Package repository declares the persistence interfaces used by the
// service layer.
package repository

import (
	"context"
	"time"

	"github.com/hienohelma/storefront/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its ID. A missing cart is apperrors.ErrNotFound.
	Get(ctx context.Context, cartID string) (*domain.Cart, error)

	// SaveIfVersion persists the cart only when the stored version equals
	// expected (0 meaning "no cart stored yet"), then bumps cart.Version and
	// refreshes the TTL. A concurrent write surfaces as apperrors.ErrConflict.
	// It is the only write path, so every cart write is versioned.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) error

	// Delete removes a cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, cartID string) error
}

// StoreConfigCache caches the storefront's store configuration.
type StoreConfigCache interface {
	// Get returns the cached configuration, or (nil, nil) on a miss.
	Get(ctx context.Context) (*domain.StoreConfig, error)

	// Set caches the configuration for ttl.
	Set(ctx context.Context, cfg *domain.StoreConfig, ttl time.Duration) error

	// Invalidate drops the cached configuration.
	Invalidate(ctx context.Context) error
}

// CheckoutRepository defines the interface for checkout session persistence.
type CheckoutRepository interface {
	// Create inserts a new checkout session.
	Create(ctx context.Context, session *domain.CheckoutSession) error

	// GetByID retrieves a checkout session by its ID.
	GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error)

	// Update stores the session's status and provider outcome.
	Update(ctx context.Context, session *domain.CheckoutSession) error

	// ListByCart returns the sessions created for a cart, newest first.
	ListByCart(ctx context.Context, cartID string) ([]domain.CheckoutSession, error)
}
