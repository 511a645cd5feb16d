package domain

import "time"

// OrderStatus is the lifecycle status of a placed order.
type OrderStatus string

// Order status constants as reported by the storefront API.
const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// Order is a customer's placed order.
type Order struct {
	ID             string          `json:"id"`
	OrderNumber    int             `json:"order_number"`
	TotalAmount    int64           `json:"total_amount"`
	Status         OrderStatus     `json:"status"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	LineItems      []OrderLineItem `json:"line_items"`
	CreatedAt      time.Time       `json:"created_at"`
}

// OrderLineItem is one line of an order. Shipping is carried as a line item
// with IsShipping set.
type OrderLineItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	ItemType    string `json:"item_type"`
	ProductCode string `json:"product_code,omitempty"`
	ProductID   string `json:"product_id,omitempty"`
	VariationID string `json:"variation_id,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Image       string `json:"image,omitempty"`
	IsShipping  bool   `json:"is_shipping,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// IsTrackable reports whether the order has shipped with a tracking number.
func (o *Order) IsTrackable() bool {
	return o.Status == OrderStatusShipped && o.TrackingNumber != ""
}

// ShipmentMethod is a delivery option for a postal code.
type ShipmentMethod struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Price       int64            `json:"price"`
	Description string           `json:"description,omitempty"`
	Locations   []PickupLocation `json:"locations,omitempty"`
}

// PickupLocation is a parcel pickup point.
type PickupLocation struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}
