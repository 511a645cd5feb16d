// Package pricing computes display prices, campaign discounts and cart totals.
// Everything in this package is a pure function of its inputs: no I/O, no
// shared state, and the clock is passed in by the caller.
package pricing

import (
	"math"
	"strconv"
	"time"

	"github.com/hienohelma/storefront/internal/domain"
)

// PriceInfo is the effective price of a product or variation at one instant.
type PriceInfo struct {
	CurrentPrice int64  `json:"current_price"`
	IsOnSale     bool   `json:"is_on_sale"`
	SalePrice    *int64 `json:"sale_price"`
	// SalePercent is salePrice/currentPrice as a decimal string ("0.75"),
	// not a percentage.
	SalePercent *string `json:"sale_percent"`
}

// UnitPrice is the price a single unit is charged at: the sale price while a
// sale is active, the list price otherwise.
func (p PriceInfo) UnitPrice() int64 {
	if p.IsOnSale && p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.CurrentPrice
}

// DiscountPercent returns round((1 - salePercent) * 100), the discount shown
// on sale badges.
func (p PriceInfo) DiscountPercent() (int, bool) {
	if !p.IsOnSale || p.SalePercent == nil {
		return 0, false
	}
	ratio, err := strconv.ParseFloat(*p.SalePercent, 64)
	if err != nil {
		return 0, false
	}
	return int(math.Round((1 - ratio) * 100)), true
}

// ResolvePrice determines the effective price of a product, or of one of its
// variations when v is non-nil, at the instant now.
//
// The variation's price and sale price override the product's when set. Its
// sale dates override the product's per field, unless SaleWindowSet marks the
// variation window as authoritative (NoSale then disables any sale).
func ResolvePrice(p *domain.Product, v *domain.Variation, now time.Time) PriceInfo {
	current := p.Price
	salePrice := p.SalePrice
	start, end := p.SaleStartDate, p.SaleEndDate
	noSale := false

	if v != nil {
		if v.Price != nil {
			current = *v.Price
		}
		if v.SalePrice != nil {
			salePrice = v.SalePrice
		}
		if v.SaleWindowSet {
			start, end = v.SaleStartDate, v.SaleEndDate
			noSale = v.NoSale
		} else {
			if v.SaleStartDate != nil {
				start = v.SaleStartDate
			}
			if v.SaleEndDate != nil {
				end = v.SaleEndDate
			}
		}
	}

	info := PriceInfo{CurrentPrice: current}

	// A zero list price would make the ratio undefined. A zero sale price means
	// the field is unset, and one that does not undercut the list price is not
	// a sale.
	if noSale || current <= 0 || salePrice == nil || *salePrice <= 0 || *salePrice >= current {
		return info
	}
	if !domain.InWindow(now, start, end) {
		return info
	}

	sp := *salePrice
	percent := strconv.FormatFloat(float64(sp)/float64(current), 'f', -1, 64)
	info.IsOnSale = true
	info.SalePrice = &sp
	info.SalePercent = &percent
	return info
}

// ResolveLineItemPrice resolves the price of a cart line item.
func ResolveLineItemPrice(item *domain.LineItem, now time.Time) PriceInfo {
	return ResolvePrice(&item.Product, item.Variation, now)
}
