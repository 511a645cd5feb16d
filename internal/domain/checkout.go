package domain

import "time"

// Checkout session status constants.
const (
	CheckoutStatusInitiated  = "initiated"
	CheckoutStatusRedirected = "redirected"
	CheckoutStatusFailed     = "failed"
)

// CheckoutSession records the priced cart snapshot handed to a payment
// provider. TotalAmount is the engine's cart total the provider was asked to
// charge for the goods; the shipment is priced separately in Shipment.
type CheckoutSession struct {
	ID            string             `json:"id"`
	CartID        string             `json:"cart_id"`
	CustomerID    string             `json:"customer_id,omitempty"`
	Provider      PaymentMethod      `json:"provider"`
	Status        string             `json:"status"`
	Items         []CheckoutItem     `json:"items"`
	OriginalTotal int64              `json:"original_total"`
	DiscountTotal int64              `json:"discount_total"`
	TotalAmount   int64              `json:"total_amount"`
	Currency      string             `json:"currency"`
	Customer      *CustomerDetails   `json:"customer,omitempty"`
	Shipment      *ShipmentSelection `json:"shipment,omitempty"`
	RedirectURL   string             `json:"redirect_url,omitempty"`
	ProviderRef   string             `json:"provider_ref,omitempty"`
	FailureReason string             `json:"failure_reason,omitempty"`
	Payment       *PaymentOptions    `json:"payment,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CustomerDetails are the contact and delivery details given at checkout.
type CustomerDetails struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Phone      string `json:"phone" validate:"required,min=5,max=20"`
	Address    string `json:"address" validate:"required,max=200"`
	PostalCode string `json:"postal_code" validate:"required,numeric,len=5"`
	City       string `json:"city" validate:"required,max=100"`
}

// ShipmentSelection is the delivery option chosen at checkout, as priced by
// the storefront when the session was created.
type ShipmentSelection struct {
	MethodID         string `json:"method_id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	PickupLocationID string `json:"pickup_location_id,omitempty"`
}

// CheckoutItem is one priced line of a checkout session.
type CheckoutItem struct {
	ProductID    string `json:"product_id"`
	VariationID  string `json:"variation_id,omitempty"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price"`
	Quantity     int    `json:"quantity"`
	PaidQuantity int    `json:"paid_quantity"`
	FreeQuantity int    `json:"free_quantity"`
	LineTotal    int64  `json:"line_total"`
}

// PaymentOptions is what a payment provider returns for a created payment.
// Paytrail answers with provider groups to render as form posts; Stripe with a
// hosted checkout URL.
type PaymentOptions struct {
	Reference string            `json:"reference,omitempty"`
	URL       string            `json:"url,omitempty"`
	Groups    []PaymentGroup    `json:"groups,omitempty"`
	Providers []PaymentProvider `json:"providers,omitempty"`
}

// PaymentGroup groups payment providers (banks, cards, mobile).
type PaymentGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// PaymentProvider is one selectable provider. The client posts Parameters
// to URL.
type PaymentProvider struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Group      string             `json:"group"`
	URL        string             `json:"url"`
	SVG        string             `json:"svg"`
	Parameters []PaymentFormField `json:"parameters"`
}

// PaymentFormField is one hidden form field of a provider form.
type PaymentFormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
