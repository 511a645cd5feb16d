package storefront

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hienohelma/storefront/internal/domain"
	apperrors "github.com/hienohelma/storefront/pkg/errors"
	"github.com/hienohelma/storefront/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return NewClient(srv.URL+"/", "test-key", httpclient.New(cfg), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_GetStoreConfig(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/storefront/v1/store-config", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{
			"store": {"currency": "EUR"},
			"campaigns": [
				{"id": "c1", "name": "Osta 3 maksa 2", "type": "BUY_X_PAY_Y",
				 "startDate": "2026-01-01T00:00:00Z", "endDate": null,
				 "BuyXPayYCampaign": {"buyQuantity": 3, "payQuantity": 2,
				   "applicableCategories": [{"id": "dresses", "name": "Mekot"}]}},
				{"id": "c2", "name": "Free shipping", "type": "FREE_SHIPPING"}
			],
			"payments": {"methods": ["stripe", "paytrail"]}
		}`))
	})

	cfg, err := client.GetStoreConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Currency)
	require.Len(t, cfg.Campaigns, 2)

	c := cfg.Campaigns[0]
	assert.Equal(t, domain.CampaignTypeBuyXPayY, c.Type)
	require.NotNil(t, c.BuyXPayY)
	assert.Equal(t, 3, c.BuyXPayY.BuyQuantity)
	assert.Equal(t, 2, c.BuyXPayY.PayQuantity)
	assert.Equal(t, []string{"dresses"}, c.Eligibility.CategoryIDs)
	require.NotNil(t, c.StartDate)
	assert.Nil(t, c.EndDate)

	assert.Equal(t, domain.CampaignType("free_shipping"), cfg.Campaigns[1].Type)
	assert.Error(t, cfg.Campaigns[1].Validate())

	method, ok := cfg.PreferredPaymentMethod()
	assert.True(t, ok)
	assert.Equal(t, domain.PaymentMethodPaytrail, method)
}

func TestClient_GetProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/storefront/v1/products/prod-1", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "prod-1", "name": "Mekko", "slug": "mekko", "price": 5000,
			"salePrice": 4000, "saleStartDate": null, "saleEndDate": null,
			"quantity": null,
			"categories": [{"id": "dresses"}],
			"variations": [
				{"id": "v-m", "price": null, "salePrice": null, "quantity": 2,
				 "options": [{"optionType": {"name": "Koko"}, "value": "M"}]}
			]
		}`))
	})

	p, err := client.GetProduct(context.Background(), "prod-1")
	require.NoError(t, err)

	assert.Equal(t, int64(5000), p.Price)
	require.NotNil(t, p.SalePrice)
	assert.Equal(t, int64(4000), *p.SalePrice)
	assert.Nil(t, p.Quantity)
	assert.True(t, p.HasCategory("dresses"))

	v := p.FindVariation("v-m")
	require.NotNil(t, v)
	assert.Nil(t, v.Price)
	require.NotNil(t, v.Quantity)
	assert.Equal(t, 2, *v.Quantity)
	assert.Equal(t, []domain.VariationOption{{Type: "Koko", Value: "M"}}, v.Options)
}

func TestClient_GetProduct_DerivesMissingSlug(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "prod-2", "name": "Kesämekko Sininen", "slug": "", "price": 3900}`))
	})

	p, err := client.GetProduct(context.Background(), "prod-2")
	require.NoError(t, err)

	assert.Equal(t, "kesamekko-sininen", p.Slug)
}

func TestClient_GetProduct_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Product not found"}`))
	})

	_, err := client.GetProduct(context.Background(), "gone")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestClient_GetOrders_NewestFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/storefront/v1/customer/get-orders/cust-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true, "orders": [
			{"id": "o1", "orderNumber": 1, "totalAmount": 1000, "status": "COMPLETED",
			 "createdAt": "2026-01-01T10:00:00Z", "trackingNumber": null, "OrderLineItems": []},
			{"id": "o2", "orderNumber": 2, "totalAmount": 2500, "status": "SHIPPED",
			 "createdAt": "2026-03-01T10:00:00Z", "trackingNumber": "JJFI123",
			 "OrderLineItems": [
				{"id": "li1", "name": "Mekko", "quantity": 1, "price": 2000, "itemType": "PRODUCT",
				 "productCode": "M-1", "product": {"id": "prod-1", "images": ["a.jpg"], "slug": "mekko"}},
				{"id": "li2", "name": "Posti", "quantity": 1, "price": 500, "itemType": "SHIPPING",
				 "productCode": "", "product": {"id": "ship", "images": [], "slug": null, "isShipping": true}}
			 ]}
		]}`))
	})

	orders, err := client.GetOrders(context.Background(), "cust-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o2", orders[0].ID)
	assert.True(t, orders[0].IsTrackable())
	require.Len(t, orders[0].LineItems, 2)
	assert.Equal(t, "mekko", orders[0].LineItems[0].Slug)
	assert.Equal(t, "a.jpg", orders[0].LineItems[0].Image)
	assert.True(t, orders[0].LineItems[1].IsShipping)

	assert.Equal(t, "o1", orders[1].ID)
	assert.False(t, orders[1].IsTrackable())
	assert.Empty(t, orders[1].LineItems)
}

func TestClient_CreatePaytrailPayment(t *testing.T) {
	var got PaymentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/storefront/v1/payments/paytrail/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"transactionId": "tx-1", "href": "https://pay.test/tx-1",
			"groups": [{"id": "bank", "name": "Pankit", "icon": "bank.svg"}],
			"providers": [{"id": "op", "name": "OP", "group": "bank", "url": "https://op.test",
				"svg": "op.svg", "parameters": [{"name": "SIG", "value": "x"}]}]
		}`))
	})

	opts, err := client.CreatePaytrailPayment(context.Background(), PaymentRequest{
		Reference:   "sess-1",
		Currency:    "EUR",
		TotalAmount: 2000,
		Items:       []domain.CheckoutItem{{ProductID: "prod-1", Quantity: 3, PaidQuantity: 2, FreeQuantity: 1, UnitPrice: 1000, LineTotal: 2000}},
		Customer: NewPaymentCustomer(&domain.CustomerDetails{
			FirstName: "Aino", LastName: "Virtanen", Email: "aino@example.com", Phone: "0401234567",
			Address: "Mannerheimintie 1", PostalCode: "00100", City: "Helsinki",
		}),
		Shipment: NewPaymentShipment(&domain.ShipmentSelection{MethodID: "posti", Name: "Posti", Price: 590, PickupLocationID: "pp-1"}),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), got.TotalAmount)
	assert.Equal(t, "sess-1", got.Reference)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 1, got.Items[0].FreeQuantity)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "aino@example.com", got.Customer.Email)
	assert.Equal(t, "00100", got.Customer.PostalCode)
	require.NotNil(t, got.Shipment)
	assert.Equal(t, "posti", got.Shipment.ShipmentMethodID)
	assert.Equal(t, int64(590), got.Shipment.Price)
	assert.Equal(t, "pp-1", got.Shipment.PickupPointID)

	assert.Equal(t, "tx-1", opts.Reference)
	require.Len(t, opts.Providers, 1)
	assert.Equal(t, "bank", opts.Providers[0].Group)
	assert.Equal(t, "x", opts.Providers[0].Parameters[0].Value)
}

func TestClient_CreateStripeCheckout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/storefront/v1/payments/stripe/create", r.URL.Path)
		_, _ = w.Write([]byte(`{"sessionId": "cs_1", "url": "https://checkout.stripe.test/cs_1"}`))
	})

	opts, err := client.CreateStripeCheckout(context.Background(), PaymentRequest{Reference: "s", TotalAmount: 100})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", opts.Reference)
	assert.Equal(t, "https://checkout.stripe.test/cs_1", opts.URL)
}

func TestClient_CreateStripeCheckout_NoURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sessionId": "cs_1"}`))
	})

	_, err := client.CreateStripeCheckout(context.Background(), PaymentRequest{})
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestPaymentRequest_WireNames(t *testing.T) {
	req := PaymentRequest{
		Reference: "s",
		Customer:  NewPaymentCustomer(&domain.CustomerDetails{FirstName: "Aino", PostalCode: "00100"}),
		Shipment:  NewPaymentShipment(&domain.ShipmentSelection{MethodID: "posti", Price: 590}),
	}

	data, err := json.Marshal(req)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"firstName":"Aino"`)
	assert.Contains(t, string(data), `"postalCode":"00100"`)
	assert.Contains(t, string(data), `"shipmentMethodId":"posti"`)
	assert.NotContains(t, string(data), "pickupPointId")

	assert.Nil(t, NewPaymentCustomer(nil))
	assert.Nil(t, NewPaymentShipment(nil))
}

func TestClient_GetShipmentMethods(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/storefront/v1/shipment-methods/00100", r.URL.Path)
		_, _ = w.Write([]byte(`{"shipmentMethods": [
			{"id": "posti", "name": "Posti", "price": 590, "pickupLocations": [
				{"id": "p1", "name": "K-Market", "address": {"streetAddress": "Katu 1", "postalCode": "00100", "city": "Helsinki"}}
			]},
			{"id": "home", "name": "Kotiinkuljetus", "price": 1290}
		]}`))
	})

	methods, err := client.GetShipmentMethods(context.Background(), "00100")
	require.NoError(t, err)
	require.Len(t, methods, 2)
	require.Len(t, methods[0].Locations, 1)
	assert.Equal(t, "Helsinki", methods[0].Locations[0].City)
	assert.Empty(t, methods[1].Locations)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{"bad request", http.StatusBadRequest, `{"error": "invalid postal code"}`, http.StatusBadRequest},
		{"unauthorized key", http.StatusUnauthorized, `{"error": "bad api key"}`, http.StatusBadGateway},
		{"server error", http.StatusInternalServerError, `oops`, http.StatusBadGateway},
		{"unavailable", http.StatusServiceUnavailable, ``, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.GetShipmentMethods(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tc.want, apperrors.HTTPStatus(err))
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"shipmentMethods": [`))
	})

	_, err := client.GetShipmentMethods(context.Background(), "x")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestClient_TransportErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("circuit open", func(t *testing.T) {
		doer := httpclient.DoerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return nil, httpclient.ErrCircuitOpen
		})
		client := NewClient("http://unused", "", doer, logger)
		err := client.Ping(context.Background())
		assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	})

	t.Run("connection refused", func(t *testing.T) {
		doer := httpclient.DoerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return nil, io.ErrUnexpectedEOF
		})
		client := NewClient("http://unused", "", doer, logger)
		err := client.Ping(context.Background())
		assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("canceled passes through", func(t *testing.T) {
		doer := httpclient.DoerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
			return nil, context.Canceled
		})
		client := NewClient("http://unused", "", doer, logger)
		err := client.Ping(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("no api key header when unset", func(t *testing.T) {
		doer := httpclient.DoerFunc(func(ctx context.Context, req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.Header.Get("x-api-key"))
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: http.Header{}}, nil
		})
		client := NewClient("http://unused", "", doer, logger)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, client.Ping(ctx))
	})
}
