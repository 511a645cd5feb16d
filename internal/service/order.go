package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hienohelma/storefront/internal/domain"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
	"github.com/hienohelma/storefront/pkg/pagination"
	"github.com/hienohelma/storefront/pkg/validator"
)

// OrderFetcher reads a customer's order history from the storefront.
type OrderFetcher interface {
	GetOrders(ctx context.Context, customerID string) ([]domain.Order, error)
}

// ShipmentFetcher lists the shipment methods available for a postal code.
type ShipmentFetcher interface {
	GetShipmentMethods(ctx context.Context, postalCode string) ([]domain.ShipmentMethod, error)
}

// OrderService serves order history and shipping options.
type OrderService struct {
	orders   OrderFetcher
	shipping ShipmentFetcher
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders OrderFetcher, shipping ShipmentFetcher, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		shipping: shipping,
		logger:   logger,
	}
}

// ListOrders returns one page of the customer's orders, newest first. The
// storefront API returns the full history, so paging happens here.
func (s *OrderService) ListOrders(ctx context.Context, customerID string, page pagination.Params) (pagination.Page[domain.Order], error) {
	if customerID == "" {
		return pagination.Page[domain.Order]{}, apperrors.Unauthorized("customer authentication required")
	}

	orders, err := s.orders.GetOrders(ctx, customerID)
	if err != nil {
		return pagination.Page[domain.Order]{}, fmt.Errorf("get orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return pagination.Slice(orders, page), nil
}

// ShipmentMethods returns the shipment methods for a Finnish postal code.
func (s *OrderService) ShipmentMethods(ctx context.Context, postalCode string) ([]domain.ShipmentMethod, error) {
	if err := validator.Var(postalCode, "required,numeric,len=5"); err != nil {
		return nil, apperrors.InvalidInput("postal_code must be 5 digits")
	}

	methods, err := s.shipping.GetShipmentMethods(ctx, postalCode)
	if err != nil {
		return nil, fmt.Errorf("get shipment methods: %w", err)
	}
	if methods == nil {
		methods = []domain.ShipmentMethod{}
	}

	s.logger.DebugContext(ctx, "shipment methods fetched",
		slog.String("postal_code", postalCode),
		slog.Int("count", len(methods)),
	)
	return methods, nil
}
