package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/hienohelma/storefront/internal/domain"
)

// CalculatedItem is a line item split into paid and free units, with its
// prices resolved.
type CalculatedItem struct {
	Item                 domain.LineItem `json:"item"`
	PaidQuantity         int             `json:"paid_quantity"`
	FreeQuantity         int             `json:"free_quantity"`
	Price                PriceInfo       `json:"price"`
	UnitPrice            int64           `json:"unit_price"`
	LineSubtotalPaid     int64           `json:"line_subtotal_paid"`
	LineSubtotalOriginal int64           `json:"line_subtotal_original"`
	CampaignApplied      bool            `json:"campaign_applied"`
	CampaignID           string          `json:"campaign_id,omitempty"`
}

// SkippedCampaign names a campaign that was not applied and why.
type SkippedCampaign struct {
	CampaignID string `json:"campaign_id"`
	Reason     string `json:"reason"`
}

// Result is the billable view of a cart.
type Result struct {
	CalculatedItems  []CalculatedItem  `json:"calculated_items"`
	CartTotal        int64             `json:"cart_total"`
	OriginalTotal    int64             `json:"original_total"`
	TotalSavings     int64             `json:"total_savings"`
	AppliedCampaigns []string          `json:"applied_campaigns,omitempty"`
	SkippedCampaigns []SkippedCampaign `json:"skipped_campaigns,omitempty"`
	ExcludedItems    []string          `json:"excluded_items,omitempty"`
}

// CalculateCartWithCampaigns prices the cart against the given campaigns,
// reading the clock exactly once.
func CalculateCartWithCampaigns(items []domain.LineItem, campaigns []domain.Campaign) Result {
	return Calculate(items, campaigns, time.Now())
}

// Calculate prices the cart at the instant now.
//
// Line items with a non-positive quantity or a negative unit price are left
// out of the result and reported in ExcludedItems, as are items whose line
// subtotal would push the cart total past what an int64 holds. Campaigns that
// fail validation or whose window does not contain now are reported in
// SkippedCampaigns and grant nothing. When several campaigns reach the same
// item, the one granting that item the most free units wins; ties go to the
// campaign listed first.
func Calculate(items []domain.LineItem, campaigns []domain.Campaign, now time.Time) Result {
	res := Result{CalculatedItems: make([]CalculatedItem, 0, len(items))}

	valid := make([]domain.LineItem, 0, len(items))
	prices := make([]PriceInfo, 0, len(items))
	var original int64
	for _, item := range items {
		if item.CartQuantity <= 0 || item.Product.ID == "" {
			res.ExcludedItems = append(res.ExcludedItems, item.Key())
			continue
		}
		price := ResolveLineItemPrice(&item, now)
		if price.UnitPrice() < 0 {
			res.ExcludedItems = append(res.ExcludedItems, item.Key())
			continue
		}
		sub, ok := lineAmount(item.CartQuantity, price.UnitPrice())
		if !ok || sub > math.MaxInt64-original {
			res.ExcludedItems = append(res.ExcludedItems, item.Key())
			continue
		}
		original += sub
		valid = append(valid, item)
		prices = append(prices, price)
	}

	free := make([]int, len(valid))
	winner := make([]int, len(valid))
	for i := range winner {
		winner[i] = -1
	}

	for ci := range campaigns {
		c := &campaigns[ci]
		if err := c.Validate(); err != nil {
			res.SkippedCampaigns = append(res.SkippedCampaigns, SkippedCampaign{
				CampaignID: c.ID,
				Reason:     err.Error(),
			})
			continue
		}
		if !c.IsActive(now) {
			res.SkippedCampaigns = append(res.SkippedCampaigns, SkippedCampaign{
				CampaignID: c.ID,
				Reason:     fmt.Sprintf("%s: evaluated at %s", domain.ErrCampaignInactive, now.UTC().Format(time.RFC3339)),
			})
			continue
		}
		granted := allocate(c, valid)
		for i, n := range granted {
			if n > free[i] {
				free[i] = n
				winner[i] = ci
			}
		}
	}

	applied := make([]bool, len(campaigns))
	for i, item := range valid {
		unit := prices[i].UnitPrice()
		qty := item.CartQuantity
		freeQty := min(free[i], qty)
		paid := qty - freeQty

		ci := CalculatedItem{
			Item:                 item,
			PaidQuantity:         paid,
			FreeQuantity:         freeQty,
			Price:                prices[i],
			UnitPrice:            unit,
			LineSubtotalPaid:     int64(paid) * unit,
			LineSubtotalOriginal: int64(qty) * unit,
		}
		if freeQty > 0 {
			ci.CampaignApplied = true
			ci.CampaignID = campaigns[winner[i]].ID
			applied[winner[i]] = true
		}

		res.CartTotal += ci.LineSubtotalPaid
		res.OriginalTotal += ci.LineSubtotalOriginal
		res.CalculatedItems = append(res.CalculatedItems, ci)
	}

	for ci, ok := range applied {
		if ok {
			res.AppliedCampaigns = append(res.AppliedCampaigns, campaigns[ci].ID)
		}
	}

	res.TotalSavings = res.OriginalTotal - res.CartTotal
	return res
}

// lineAmount returns qty*unit, or false when the product overflows int64.
func lineAmount(qty int, unit int64) (int64, bool) {
	if unit > 0 && int64(qty) > math.MaxInt64/unit {
		return 0, false
	}
	return int64(qty) * unit, true
}

// FreeQuantityFor returns the free units granted to the line item with the
// given key, or 0.
func (r *Result) FreeQuantityFor(key string) int {
	for i := range r.CalculatedItems {
		if r.CalculatedItems[i].Item.Key() == key {
			return r.CalculatedItems[i].FreeQuantity
		}
	}
	return 0
}
