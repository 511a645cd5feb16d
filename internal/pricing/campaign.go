package pricing

import (
	"github.com/hienohelma/storefront/internal/domain"
)

// allocate returns, per line item, the number of units the campaign makes
// free. items must already be filtered to valid line items. The campaign must
// have passed Validate.
func allocate(c *domain.Campaign, items []domain.LineItem) []int {
	switch c.Type {
	case domain.CampaignTypeBuyXPayY:
		return allocateBuyXPayY(c.BuyXPayY, c.Eligibility, items)
	default:
		return make([]int, len(items))
	}
}

// allocateBuyXPayY pools the eligible units of all items, earns
// (buy - pay) free units per complete group of buy units, and hands the free
// units out in cart order, each item taking at most its own quantity.
func allocateBuyXPayY(rule *domain.BuyXPayY, eligibility domain.Eligibility, items []domain.LineItem) []int {
	free := make([]int, len(items))

	eligible := make([]bool, len(items))
	pooled := 0
	for i := range items {
		if eligibility.Matches(&items[i]) {
			eligible[i] = true
			pooled += items[i].CartQuantity
		}
	}

	remaining := FreeUnits(pooled, rule.BuyQuantity, rule.PayQuantity)
	for i := range items {
		if remaining == 0 {
			break
		}
		if !eligible[i] {
			continue
		}
		n := min(items[i].CartQuantity, remaining)
		free[i] = n
		remaining -= n
	}

	return free
}

// FreeUnits is the number of free units a pool of eligible units earns under
// "buy X pay Y": floor(pooled / buy) * (buy - pay). Partial groups earn
// nothing.
func FreeUnits(pooled, buy, pay int) int {
	if buy <= 0 || pay <= 0 || pay > buy || pooled <= 0 {
		return 0
	}
	return (pooled / buy) * (buy - pay)
}
