package domain

import "time"

// Cart is the persisted cart state. Prices are never stored on the cart; they
// are derived from the product snapshots on every read.
type Cart struct {
	ID        string     `json:"id"`
	Items     []LineItem `json:"items"`
	Currency  string     `json:"currency"`
	Version   int        `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// LineItem is one distinct product+variation entry in the cart.
type LineItem struct {
	Product      Product    `json:"product"`
	Variation    *Variation `json:"variation,omitempty"`
	CartQuantity int        `json:"cart_quantity"`
}

// ItemKey builds the identity of a product+variation pair. An empty variation
// ID means the product itself.
func ItemKey(productID, variationID string) string {
	if variationID == "" {
		return productID
	}
	return productID + ":" + variationID
}

// VariationID returns the ID of the selected variation, or "".
func (li *LineItem) VariationID() string {
	if li.Variation == nil {
		return ""
	}
	return li.Variation.ID
}

// Key returns the line item's identity within a cart.
func (li *LineItem) Key() string {
	return ItemKey(li.Product.ID, li.VariationID())
}

// StockQuantity returns the available stock of the selected variation, falling
// back to the product. nil means unlimited.
func (li *LineItem) StockQuantity() *int {
	if li.Variation != nil && li.Variation.Quantity != nil {
		return li.Variation.Quantity
	}
	return li.Product.Quantity
}

// FindItemIndex returns the index of the line item for the given product and
// variation IDs, or -1.
func (c *Cart) FindItemIndex(productID, variationID string) int {
	key := ItemKey(productID, variationID)
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// FindItemByKey returns the index of the line item with the given key, or -1.
func (c *Cart) FindItemByKey(key string) int {
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// ItemCount returns the total number of units in the cart.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.CartQuantity
	}
	return count
}

// QuantityOf returns how many units of a product are in the cart. With an
// empty variationID all variations of the product are counted.
func (c *Cart) QuantityOf(productID, variationID string) int {
	var total int
	for _, item := range c.Items {
		if item.Product.ID != productID {
			continue
		}
		if variationID == "" || item.VariationID() == variationID {
			total += item.CartQuantity
		}
	}
	return total
}
