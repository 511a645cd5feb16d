package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/internal/pricing"
	pkgkafka "github.com/hienohelma/storefront/pkg/kafka"
	"github.com/hienohelma/storefront/pkg/logger"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestProducer() (*Producer, *recordingWriter) {
	w := &recordingWriter{}
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProducer(pkgkafka.NewProducerWithWriter(w, []string{"localhost:9092"}, l), l), w
}

func decodeEvent(t *testing.T, msg kafka.Message) pkgkafka.Event {
	t.Helper()
	var evt pkgkafka.Event
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	return evt
}

func TestProducer_PublishCartUpdated(t *testing.T) {
	p, w := newTestProducer()

	cart := &domain.Cart{
		ID:       "cart-1",
		Currency: "EUR",
		Version:  3,
		Items: []domain.LineItem{
			{Product: domain.Product{ID: "p1", Price: 1000}, CartQuantity: 3},
		},
	}
	campaigns := []domain.Campaign{{
		ID:          "c1",
		Type:        domain.CampaignTypeBuyXPayY,
		BuyXPayY:    &domain.BuyXPayY{BuyQuantity: 3, PayQuantity: 2},
		Eligibility: domain.Eligibility{All: true},
	}}
	priced := pricing.Calculate(cart.Items, campaigns, time.Now())

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithCartID(ctx, "cart-1")
	require.NoError(t, p.PublishCartUpdated(ctx, cart, &priced))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, TopicCartUpdated, msg.Topic)
	assert.Equal(t, "cart-1", string(msg.Key))

	evt := decodeEvent(t, msg)
	assert.Equal(t, TopicCartUpdated, evt.Type)
	assert.Equal(t, AggregateTypeCart, evt.AggregateType)
	assert.Equal(t, SourceStorefront, evt.Source)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.Equal(t, "cart-1", evt.Metadata["cart_id"])

	var data CartUpdatedData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, 3, data.Version)
	assert.Equal(t, 3, data.ItemCount)
	assert.Equal(t, int64(2000), data.CartTotal)
	assert.Equal(t, int64(3000), data.OriginalTotal)
	assert.Equal(t, int64(1000), data.TotalSavings)
	assert.Equal(t, []string{"c1"}, data.AppliedCampaigns)
	require.Len(t, data.Items, 1)
	assert.Equal(t, 2, data.Items[0].PaidQuantity)
	assert.Equal(t, 1, data.Items[0].FreeQuantity)
	assert.Equal(t, "c1", data.Items[0].CampaignID)
}

func TestProducer_PublishCartCleared(t *testing.T) {
	p, w := newTestProducer()

	require.NoError(t, p.PublishCartCleared(context.Background(), "cart-9"))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicCartCleared, w.msgs[0].Topic)

	var data CartClearedData
	evt := decodeEvent(t, w.msgs[0])
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, "cart-9", data.CartID)
	assert.Empty(t, evt.CorrelationID)
}

func TestProducer_PublishCheckoutInitiated(t *testing.T) {
	p, w := newTestProducer()

	session := &domain.CheckoutSession{
		ID:            "sess-1",
		CartID:        "cart-1",
		CustomerID:    "cust-1",
		Provider:      domain.PaymentMethodPaytrail,
		Status:        domain.CheckoutStatusRedirected,
		OriginalTotal: 3000,
		DiscountTotal: 1000,
		TotalAmount:   2000,
		Currency:      "EUR",
	}
	require.NoError(t, p.PublishCheckoutInitiated(context.Background(), session))
	require.Len(t, w.msgs, 1)

	evt := decodeEvent(t, w.msgs[0])
	assert.Equal(t, AggregateTypeCheckout, evt.AggregateType)
	assert.Equal(t, "sess-1", evt.AggregateID)

	var data CheckoutInitiatedData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, domain.PaymentMethodPaytrail, data.Provider)
	assert.Equal(t, int64(2000), data.TotalAmount)
	assert.Equal(t, "cust-1", data.CustomerID)
}

func TestProducer_PublishError(t *testing.T) {
	p, w := newTestProducer()
	w.err = errors.New("broker down")

	err := p.PublishCartCleared(context.Background(), "cart-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish storefront.cart.cleared event")
}

func TestNopPublisher(t *testing.T) {
	var pub Publisher = NopPublisher{}
	ctx := context.Background()

	assert.NoError(t, pub.PublishCartUpdated(ctx, &domain.Cart{}, &pricing.Result{}))
	assert.NoError(t, pub.PublishCartCleared(ctx, "x"))
	assert.NoError(t, pub.PublishCheckoutInitiated(ctx, &domain.CheckoutSession{}))
}
