package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hienohelma/storefront/internal/domain"
)

func product(id string, price int64, categories ...string) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price, CategoryIDs: categories}
}

func line(p domain.Product, qty int) domain.LineItem {
	return domain.LineItem{Product: p, CartQuantity: qty}
}

func buyXPayY(id string, buy, pay int, eligibility domain.Eligibility) domain.Campaign {
	return domain.Campaign{
		ID:          id,
		Name:        "Campaign " + id,
		Type:        domain.CampaignTypeBuyXPayY,
		BuyXPayY:    &domain.BuyXPayY{BuyQuantity: buy, PayQuantity: pay},
		Eligibility: eligibility,
	}
}

func assertConservation(t *testing.T, res Result) {
	t.Helper()
	for _, ci := range res.CalculatedItems {
		assert.Equal(t, ci.Item.CartQuantity, ci.PaidQuantity+ci.FreeQuantity, "item %s", ci.Item.Key())
	}
	assert.GreaterOrEqual(t, res.TotalSavings, int64(0))
	assert.LessOrEqual(t, res.CartTotal, res.OriginalTotal)
	assert.Equal(t, res.OriginalTotal-res.CartTotal, res.TotalSavings)
}

// ============================================================================
// Buy X pay Y scenarios
// ============================================================================

func TestCalculate_ExactMultiple(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 6)}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}

	res := Calculate(items, campaigns, testNow)

	require.Len(t, res.CalculatedItems, 1)
	ci := res.CalculatedItems[0]
	assert.Equal(t, 2, ci.FreeQuantity)
	assert.Equal(t, 4, ci.PaidQuantity)
	assert.Equal(t, int64(4000), ci.LineSubtotalPaid)
	assert.Equal(t, int64(6000), ci.LineSubtotalOriginal)
	assert.True(t, ci.CampaignApplied)
	assert.Equal(t, "c1", ci.CampaignID)
	assert.Equal(t, int64(4000), res.CartTotal)
	assert.Equal(t, int64(6000), res.OriginalTotal)
	assert.Equal(t, int64(2000), res.TotalSavings)
	assert.Equal(t, []string{"c1"}, res.AppliedCampaigns)
	assertConservation(t, res)
}

func TestCalculate_PartialGroup(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 4)}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}

	res := Calculate(items, campaigns, testNow)

	ci := res.CalculatedItems[0]
	assert.Equal(t, 1, ci.FreeQuantity)
	assert.Equal(t, 3, ci.PaidQuantity)
	assert.Equal(t, int64(3000), res.CartTotal)
	assertConservation(t, res)
}

func TestCalculate_BelowThreshold(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 2)}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, 0, res.CalculatedItems[0].FreeQuantity)
	assert.False(t, res.CalculatedItems[0].CampaignApplied)
	assert.Equal(t, int64(0), res.TotalSavings)
	assert.Empty(t, res.AppliedCampaigns)
}

func TestCalculate_SaleCombinedWithCampaign(t *testing.T) {
	p := product("p1", 2000)
	p.SalePrice = i64(1500)
	p.SaleStartDate = at(testNow.Add(-time.Hour))
	p.SaleEndDate = at(testNow.Add(time.Hour))
	items := []domain.LineItem{line(p, 2)}
	campaigns := []domain.Campaign{buyXPayY("c1", 2, 1, domain.Eligibility{ProductIDs: []string{"p1"}})}

	res := Calculate(items, campaigns, testNow)

	ci := res.CalculatedItems[0]
	assert.Equal(t, int64(1500), ci.UnitPrice)
	assert.True(t, ci.Price.IsOnSale)
	assert.Equal(t, 1, ci.FreeQuantity)
	assert.Equal(t, 1, ci.PaidQuantity)
	assert.Equal(t, int64(1500), res.CartTotal)
	assert.Equal(t, int64(3000), res.OriginalTotal)
	assert.Equal(t, int64(1500), res.TotalSavings)
}

func TestCalculate_PoolsAcrossItemsInCartOrder(t *testing.T) {
	items := []domain.LineItem{
		line(product("p1", 1000, "dresses"), 2),
		line(product("p2", 3000, "dresses"), 1),
	}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{CategoryIDs: []string{"dresses"}})}

	res := Calculate(items, campaigns, testNow)

	require.Len(t, res.CalculatedItems, 2)
	assert.Equal(t, 1, res.CalculatedItems[0].FreeQuantity)
	assert.Equal(t, 0, res.CalculatedItems[1].FreeQuantity)
	assert.Equal(t, int64(1000), res.TotalSavings)
	assertConservation(t, res)
}

func TestCalculate_FreeUnitsSpillOverToNextItem(t *testing.T) {
	items := []domain.LineItem{
		line(product("p1", 1000), 1),
		line(product("p2", 1000), 5),
	}
	// Buy 3 pay 1: six pooled units earn four free ones; p1 can only take one.
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 1, domain.Eligibility{All: true})}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, 1, res.CalculatedItems[0].FreeQuantity)
	assert.Equal(t, 0, res.CalculatedItems[0].PaidQuantity)
	assert.Equal(t, 3, res.CalculatedItems[1].FreeQuantity)
	assert.Equal(t, 2, res.CalculatedItems[1].PaidQuantity)
	assert.Equal(t, int64(4000), res.TotalSavings)
	assertConservation(t, res)
}

func TestCalculate_IneligibleItemIsolation(t *testing.T) {
	items := []domain.LineItem{
		line(product("socks", 500), 10),
		line(product("p1", 1000), 3),
	}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{ProductIDs: []string{"p1"}})}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, 0, res.CalculatedItems[0].FreeQuantity)
	assert.Equal(t, 10, res.CalculatedItems[0].PaidQuantity)
	assert.Equal(t, 1, res.CalculatedItems[1].FreeQuantity)
	assertConservation(t, res)
}

func TestCalculate_VariationEligibility(t *testing.T) {
	p := product("p1", 1000)
	red := domain.Variation{ID: "red"}
	blue := domain.Variation{ID: "blue"}
	items := []domain.LineItem{
		{Product: p, Variation: &blue, CartQuantity: 2},
		{Product: p, Variation: &red, CartQuantity: 2},
	}
	campaigns := []domain.Campaign{buyXPayY("c1", 2, 1, domain.Eligibility{VariationIDs: []string{"red"}})}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, 0, res.CalculatedItems[0].FreeQuantity)
	assert.Equal(t, 1, res.CalculatedItems[1].FreeQuantity)
}

func TestCalculate_EmptyEligibilityMatchesNothing(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 6)}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{})}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, int64(0), res.TotalSavings)
}

// ============================================================================
// Invalid input
// ============================================================================

func TestCalculate_InvalidCampaignsAreSkipped(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 6)}
	campaigns := []domain.Campaign{
		buyXPayY("pay-more", 2, 3, domain.Eligibility{All: true}),
		buyXPayY("zero-buy", 0, 0, domain.Eligibility{All: true}),
		{ID: "no-payload", Type: domain.CampaignTypeBuyXPayY, Eligibility: domain.Eligibility{All: true}},
		{ID: "unknown", Type: "percentage", Eligibility: domain.Eligibility{All: true}},
	}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, int64(6000), res.CartTotal)
	assert.Equal(t, int64(0), res.TotalSavings)
	require.Len(t, res.SkippedCampaigns, 4)
	assert.Equal(t, "pay-more", res.SkippedCampaigns[0].CampaignID)
	assert.Contains(t, res.SkippedCampaigns[0].Reason, "invalid campaign quantities")
	assert.Equal(t, "unknown", res.SkippedCampaigns[3].CampaignID)
}

func TestCalculate_InvalidItemsExcluded(t *testing.T) {
	negative := product("neg", -100)
	items := []domain.LineItem{
		line(product("zero", 1000), 0),
		line(product("p1", 1000), 3),
		line(product("minus", 1000), -2),
		line(negative, 1),
	}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}

	res := Calculate(items, campaigns, testNow)

	require.Len(t, res.CalculatedItems, 1)
	assert.Equal(t, "p1", res.CalculatedItems[0].Item.Product.ID)
	assert.Equal(t, 1, res.CalculatedItems[0].FreeQuantity)
	assert.Equal(t, []string{"zero", "minus", "neg"}, res.ExcludedItems)
	assert.Equal(t, int64(2000), res.CartTotal)
}

func TestCalculate_CampaignOutsideWindowIsSkipped(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 3)}
	expired := buyXPayY("expired", 3, 2, domain.Eligibility{All: true})
	expired.EndDate = at(testNow.Add(-24 * time.Hour))
	upcoming := buyXPayY("upcoming", 3, 1, domain.Eligibility{All: true})
	upcoming.StartDate = at(testNow.Add(time.Hour))

	res := Calculate(items, []domain.Campaign{expired, upcoming}, testNow)

	assert.Equal(t, int64(3000), res.CartTotal)
	assert.Equal(t, int64(0), res.TotalSavings)
	assert.Empty(t, res.AppliedCampaigns)
	require.Len(t, res.SkippedCampaigns, 2)
	assert.Equal(t, "expired", res.SkippedCampaigns[0].CampaignID)
	assert.Contains(t, res.SkippedCampaigns[0].Reason, domain.ErrCampaignInactive.Error())
	assert.Equal(t, "upcoming", res.SkippedCampaigns[1].CampaignID)
}

func TestCalculate_CampaignWindowBoundsInclusive(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 3)}
	c := buyXPayY("edge", 3, 2, domain.Eligibility{All: true})
	c.StartDate = at(testNow)
	c.EndDate = at(testNow)

	res := Calculate(items, []domain.Campaign{c}, testNow)

	assert.Equal(t, int64(2000), res.CartTotal)
	assert.Equal(t, []string{"edge"}, res.AppliedCampaigns)
	assert.Empty(t, res.SkippedCampaigns)
}

func TestCalculate_OverflowingLineExcluded(t *testing.T) {
	huge := product("huge", math.MaxInt64/2+1)
	items := []domain.LineItem{
		line(product("p1", 1000), 1),
		line(huge, 3),
	}

	res := Calculate(items, nil, testNow)

	require.Len(t, res.CalculatedItems, 1)
	assert.Equal(t, "p1", res.CalculatedItems[0].Item.Product.ID)
	assert.Equal(t, []string{"huge"}, res.ExcludedItems)
	assert.Equal(t, int64(1000), res.CartTotal)
	assertConservation(t, res)
}

func TestCalculate_OverflowingCartTotalExcludesLaterItems(t *testing.T) {
	items := []domain.LineItem{
		line(product("a", math.MaxInt64/2+1), 1),
		line(product("b", math.MaxInt64/2+1), 1),
		line(product("c", 1000), 1),
	}

	res := Calculate(items, nil, testNow)

	require.Len(t, res.CalculatedItems, 2)
	assert.Equal(t, []string{"b"}, res.ExcludedItems)
	assert.Equal(t, int64(math.MaxInt64/2+1001), res.OriginalTotal)
	assert.Positive(t, res.CartTotal)
	assertConservation(t, res)
}

func TestCalculate_EmptyCart(t *testing.T) {
	res := Calculate(nil, []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}, testNow)

	assert.Empty(t, res.CalculatedItems)
	assert.NotNil(t, res.CalculatedItems)
	assert.Equal(t, int64(0), res.CartTotal)
	assert.Equal(t, int64(0), res.TotalSavings)
}

// ============================================================================
// Multiple campaigns
// ============================================================================

func TestCalculate_BestCampaignPerItemWins(t *testing.T) {
	items := []domain.LineItem{
		line(product("p1", 1000, "tops"), 4),
		line(product("p2", 1000, "skirts"), 2),
	}
	campaigns := []domain.Campaign{
		buyXPayY("tops-4-3", 4, 3, domain.Eligibility{CategoryIDs: []string{"tops"}}),
		buyXPayY("all-2-1", 2, 1, domain.Eligibility{All: true}),
	}

	res := Calculate(items, campaigns, testNow)

	// all-2-1 pools six units -> three free, p1 takes all three (beats one),
	// p2 gets nothing left from it and tops-4-3 does not cover it.
	assert.Equal(t, 3, res.CalculatedItems[0].FreeQuantity)
	assert.Equal(t, "all-2-1", res.CalculatedItems[0].CampaignID)
	assert.Equal(t, 0, res.CalculatedItems[1].FreeQuantity)
	assert.Equal(t, []string{"all-2-1"}, res.AppliedCampaigns)
	assertConservation(t, res)
}

func TestCalculate_TieGoesToFirstCampaign(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 3)}
	campaigns := []domain.Campaign{
		buyXPayY("first", 3, 2, domain.Eligibility{All: true}),
		buyXPayY("second", 3, 2, domain.Eligibility{ProductIDs: []string{"p1"}}),
	}

	res := Calculate(items, campaigns, testNow)

	assert.Equal(t, "first", res.CalculatedItems[0].CampaignID)
	assert.Equal(t, []string{"first"}, res.AppliedCampaigns)
}

// ============================================================================
// Properties
// ============================================================================

func TestCalculate_Idempotent(t *testing.T) {
	p := product("p1", 2000, "dresses")
	p.SalePrice = i64(1700)
	items := []domain.LineItem{
		line(p, 5),
		line(product("p2", 999, "dresses"), 2),
		line(product("p3", 450), 7),
	}
	campaigns := []domain.Campaign{
		buyXPayY("c1", 3, 2, domain.Eligibility{CategoryIDs: []string{"dresses"}}),
		buyXPayY("c2", 4, 3, domain.Eligibility{All: true}),
	}

	first := Calculate(items, campaigns, testNow)
	second := Calculate(items, campaigns, testNow)

	assert.Equal(t, first, second)
	assertConservation(t, first)
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 6)}
	campaigns := []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}

	_ = Calculate(items, campaigns, testNow)

	assert.Equal(t, 6, items[0].CartQuantity)
	assert.Equal(t, 3, campaigns[0].BuyXPayY.BuyQuantity)
}

func TestCalculate_ConservationAcrossQuantities(t *testing.T) {
	campaigns := []domain.Campaign{buyXPayY("c1", 5, 3, domain.Eligibility{All: true})}
	for a := 1; a <= 7; a++ {
		for b := 1; b <= 7; b++ {
			items := []domain.LineItem{
				line(product("p1", 1200), a),
				line(product("p2", 800), b),
			}
			res := Calculate(items, campaigns, testNow)
			assertConservation(t, res)

			totalFree := res.CalculatedItems[0].FreeQuantity + res.CalculatedItems[1].FreeQuantity
			assert.Equal(t, FreeUnits(a+b, 5, 3), totalFree)
		}
	}
}

func TestFreeUnits(t *testing.T) {
	tests := []struct {
		pooled, buy, pay, want int
	}{
		{pooled: 6, buy: 3, pay: 2, want: 2},
		{pooled: 4, buy: 3, pay: 2, want: 1},
		{pooled: 2, buy: 3, pay: 2, want: 0},
		{pooled: 7, buy: 2, pay: 1, want: 3},
		{pooled: 10, buy: 3, pay: 3, want: 0},
		{pooled: 10, buy: 0, pay: 0, want: 0},
		{pooled: 10, buy: 2, pay: 3, want: 0},
		{pooled: -1, buy: 2, pay: 1, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FreeUnits(tt.pooled, tt.buy, tt.pay), "pooled=%d buy=%d pay=%d", tt.pooled, tt.buy, tt.pay)
	}
}

func TestResult_FreeQuantityFor(t *testing.T) {
	items := []domain.LineItem{line(product("p1", 1000), 3)}
	res := Calculate(items, []domain.Campaign{buyXPayY("c1", 3, 2, domain.Eligibility{All: true})}, testNow)

	assert.Equal(t, 1, res.FreeQuantityFor("p1"))
	assert.Equal(t, 0, res.FreeQuantityFor("missing"))
}
