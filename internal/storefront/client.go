// Package storefront is the client for the external storefront API that owns
// products, store configuration, customer orders and payment sessions.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/hienohelma/storefront/internal/domain"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
	"github.com/hienohelma/storefront/pkg/httpclient"
)

const (
	serviceName  = "storefront API"
	apiKeyHeader = "x-api-key"
	apiPrefix    = "/api/storefront/v1"
	maxBodyBytes = 4 << 20
)

// Client calls the storefront API with the store's API key.
type Client struct {
	baseURL string
	apiKey  string
	doer    httpclient.Doer
	logger  *slog.Logger
}

// NewClient creates a storefront API client. doer is normally a
// circuit-breaker wrapped retrying client from pkg/httpclient.
func NewClient(baseURL, apiKey string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		doer:    doer,
		logger:  logger,
	}
}

// GetStoreConfig fetches the store configuration: campaigns, payment methods
// and currency.
func (c *Client) GetStoreConfig(ctx context.Context) (*domain.StoreConfig, error) {
	var body storeConfigWire
	if err := c.do(ctx, http.MethodGet, "/store-config", nil, &body); err != nil {
		return nil, err
	}
	return body.toDomain(), nil
}

// GetProduct fetches a product with its variations. A product the API does
// not know is an apperrors.ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var body productWire
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &body); err != nil {
		return nil, err
	}
	p := body.toDomain()
	return &p, nil
}

// GetOrders fetches a customer's orders, newest first.
func (c *Client) GetOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	var body ordersWire
	if err := c.do(ctx, http.MethodGet, "/customer/get-orders/"+url.PathEscape(customerID), nil, &body); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(body.Orders))
	for _, o := range body.Orders {
		orders = append(orders, o.toDomain())
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// PaymentRequest is the priced cart snapshot handed to a payment provider.
// TotalAmount covers the goods; the shipment line carries its own price.
type PaymentRequest struct {
	Reference   string                `json:"reference"`
	CustomerID  string                `json:"customerId,omitempty"`
	Currency    string                `json:"currency"`
	TotalAmount int64                 `json:"totalAmount"`
	Items       []domain.CheckoutItem `json:"items"`
	Customer    *PaymentCustomer      `json:"customer,omitempty"`
	Shipment    *PaymentShipment      `json:"shipment,omitempty"`
}

// PaymentCustomer is the buyer's contact and delivery address.
type PaymentCustomer struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

// PaymentShipment is the delivery option the buyer chose.
type PaymentShipment struct {
	ShipmentMethodID string `json:"shipmentMethodId"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	PickupPointID    string `json:"pickupPointId,omitempty"`
}

// NewPaymentCustomer converts checkout customer details for the payment API.
func NewPaymentCustomer(c *domain.CustomerDetails) *PaymentCustomer {
	if c == nil {
		return nil
	}
	return &PaymentCustomer{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		PostalCode: c.PostalCode,
		City:       c.City,
	}
}

// NewPaymentShipment converts a checkout shipment selection for the payment
// API.
func NewPaymentShipment(s *domain.ShipmentSelection) *PaymentShipment {
	if s == nil {
		return nil
	}
	return &PaymentShipment{
		ShipmentMethodID: s.MethodID,
		Name:             s.Name,
		Price:            s.Price,
		PickupPointID:    s.PickupLocationID,
	}
}

// CreatePaytrailPayment creates a Paytrail payment and returns the provider
// groups and form posts the customer chooses from.
func (c *Client) CreatePaytrailPayment(ctx context.Context, req PaymentRequest) (*domain.PaymentOptions, error) {
	var body paytrailWire
	if err := c.do(ctx, http.MethodPost, "/payments/paytrail/create", req, &body); err != nil {
		return nil, err
	}
	return body.toDomain(), nil
}

// CreateStripeCheckout creates a Stripe checkout session and returns its
// hosted checkout URL.
func (c *Client) CreateStripeCheckout(ctx context.Context, req PaymentRequest) (*domain.PaymentOptions, error) {
	var body stripeWire
	if err := c.do(ctx, http.MethodPost, "/payments/stripe/create", req, &body); err != nil {
		return nil, err
	}
	if body.URL == "" {
		return nil, apperrors.Upstream("stripe checkout returned no redirect url", nil)
	}
	return &domain.PaymentOptions{Reference: body.SessionID, URL: body.URL}, nil
}

// GetShipmentMethods fetches delivery options and pickup points for a postal
// code.
func (c *Client) GetShipmentMethods(ctx context.Context, postalCode string) ([]domain.ShipmentMethod, error) {
	var body shipmentWire
	if err := c.do(ctx, http.MethodGet, "/shipment-methods/"+url.PathEscape(postalCode), nil, &body); err != nil {
		return nil, err
	}
	return body.toDomain(), nil
}

// Ping checks that the storefront API answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/store-config", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return c.transportError(ctx, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return apperrors.Upstream(fmt.Sprintf("%s returned an unreadable %s response", serviceName, path), err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, method, path string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	c.logger.WarnContext(ctx, "storefront API request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)

	if errors.Is(err, httpclient.ErrCircuitOpen) || errors.Is(err, httpclient.ErrTooManyRequests) {
		return apperrors.ServiceUnavailable(serviceName)
	}
	return apperrors.Upstream(serviceName+" request failed", err)
}
