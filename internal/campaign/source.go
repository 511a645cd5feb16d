// Package campaign resolves the store configuration, and from it the
// campaigns active at a given instant.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/repository"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
)

// StoreConfigFetcher loads the store configuration from its owner.
type StoreConfigFetcher interface {
	GetStoreConfig(ctx context.Context) (*domain.StoreConfig, error)
}

// Source reads the store configuration through a Redis cache, falling back
// to a static file when the storefront API cannot be reached.
type Source struct {
	cache    repository.StoreConfigCache
	api      StoreConfigFetcher
	fallback *domain.StoreConfig
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSource creates a campaign source. fallback may be nil.
func NewSource(cache repository.StoreConfigCache, api StoreConfigFetcher, fallback *domain.StoreConfig, ttl time.Duration, logger *slog.Logger) *Source {
	return &Source{
		cache:    cache,
		api:      api,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
	}
}

// StoreConfig returns the store configuration from the cache, the API or
// the fallback file, in that order. Cache errors are logged and bypassed.
func (s *Source) StoreConfig(ctx context.Context) (*domain.StoreConfig, error) {
	if cfg, err := s.cache.Get(ctx); err != nil {
		s.logger.WarnContext(ctx, "store config cache read failed", slog.String("error", err.Error()))
	} else if cfg != nil {
		return cfg, nil
	}

	cfg, err := s.api.GetStoreConfig(ctx)
	if err == nil {
		if cerr := s.cache.Set(ctx, cfg, s.ttl); cerr != nil {
			s.logger.WarnContext(ctx, "store config cache write failed", slog.String("error", cerr.Error()))
		}
		return cfg, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}

	if s.fallback != nil {
		s.logger.WarnContext(ctx, "storefront API unavailable, using fallback store config",
			slog.String("error", err.Error()),
		)
		return s.fallback, nil
	}
	return nil, fmt.Errorf("get store config: %w", err)
}

// Active returns the campaigns whose window contains now. When no store
// configuration can be obtained it returns no campaigns, so carts are
// priced without discounts rather than failing.
func (s *Source) Active(ctx context.Context, now time.Time) []domain.Campaign {
	cfg, err := s.StoreConfig(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "no store config, pricing without campaigns", slog.String("error", err.Error()))
		return nil
	}
	return ActiveAt(cfg.Campaigns, now)
}

// Refresh drops the cached configuration so the next read goes to the API.
func (s *Source) Refresh(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}

// ActiveAt filters campaigns to those active at now, keeping their order.
func ActiveAt(campaigns []domain.Campaign, now time.Time) []domain.Campaign {
	active := make([]domain.Campaign, 0, len(campaigns))
	for i := range campaigns {
		if campaigns[i].IsActive(now) {
			active = append(active, campaigns[i])
		}
	}
	return active
}

// LoadFile reads a YAML store configuration.
func LoadFile(path string) (*domain.StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaigns file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML store configuration and checks its campaigns.
func Parse(data []byte) (*domain.StoreConfig, error) {
	var cfg domain.StoreConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("parse campaigns file: %v", err))
	}

	seen := make(map[string]struct{}, len(cfg.Campaigns))
	for i := range cfg.Campaigns {
		c := &cfg.Campaigns[i]
		if c.ID == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("campaign #%d has no id", i+1))
		}
		if _, dup := seen[c.ID]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate campaign id %q", c.ID))
		}
		seen[c.ID] = struct{}{}
		if err := c.Validate(); err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("campaign %q: %v", c.ID, err))
		}
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &cfg, nil
}
