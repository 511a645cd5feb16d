// Package redis implements cart and store configuration persistence on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hienohelma/storefront/internal/domain"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

const keyPrefix = "cart:"

// CartRepository implements repository.CartRepository using Redis.
type CartRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client redis.UniversalClient, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func cartKey(cartID string) string {
	return keyPrefix + cartID
}

// Get retrieves a cart by ID from Redis.
func (r *CartRepository) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(cartID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", cartID)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	return decodeCart(data)
}

// SaveIfVersion writes the cart inside a WATCH/MULTI transaction so that a
// write racing with ours makes this one fail instead of being lost.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expected int) error {
	key := cartKey(cart.ID)

	txf := func(tx *redis.Tx) error {
		current := 0
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return fmt.Errorf("redis get cart: %w", err)
		default:
			stored, err := decodeCart(data)
			if err != nil {
				return err
			}
			current = stored.Version
		}

		if current != expected {
			return apperrors.Conflict(fmt.Sprintf("cart %s was modified concurrently (version %d, expected %d)", cart.ID, current, expected))
		}

		next := *cart
		next.Version = expected + 1
		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return apperrors.Conflict(fmt.Sprintf("cart %s was modified concurrently", cart.ID))
	}
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("redis save cart: %w", err)
	}

	cart.Version = expected + 1
	return nil
}

// Delete removes a cart from Redis by ID.
func (r *CartRepository) Delete(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}

func decodeCart(data []byte) (*domain.Cart, error) {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}
