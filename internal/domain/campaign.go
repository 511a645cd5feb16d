package domain

import (
	"errors"
	"fmt"
	"time"
)

// CampaignType identifies the variant of a campaign. Each type carries its
// own payload on Campaign and has one allocation function in the pricing
// engine.
type CampaignType string

// Campaign type constants.
const (
	CampaignTypeBuyXPayY CampaignType = "buy_x_pay_y"
)

// ValidCampaignTypes returns the set of campaign types the engine can apply.
func ValidCampaignTypes() []CampaignType {
	return []CampaignType{CampaignTypeBuyXPayY}
}

// IsValidCampaignType checks whether the given type is known.
func IsValidCampaignType(t CampaignType) bool {
	for _, v := range ValidCampaignTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Campaign is a promotional campaign from the store configuration.
type Campaign struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description"`
	Type        CampaignType `json:"type" yaml:"type"`
	StartDate   *time.Time   `json:"start_date,omitempty" yaml:"start_date"`
	EndDate     *time.Time   `json:"end_date,omitempty" yaml:"end_date"`

	BuyXPayY *BuyXPayY `json:"buy_x_pay_y,omitempty" yaml:"buy_x_pay_y"`

	Eligibility Eligibility `json:"eligibility" yaml:"eligibility"`
}

// BuyXPayY is the payload of a "buy X pay Y" campaign: for every BuyQuantity
// eligible units, only PayQuantity are charged.
type BuyXPayY struct {
	BuyQuantity int `json:"buy_quantity" yaml:"buy_quantity"`
	PayQuantity int `json:"pay_quantity" yaml:"pay_quantity"`
}

// Eligibility declares which line items a campaign applies to. An item is
// eligible when All is set, or when its product, any of its categories, or its
// variation is listed.
type Eligibility struct {
	All          bool     `json:"all,omitempty" yaml:"all"`
	ProductIDs   []string `json:"product_ids,omitempty" yaml:"product_ids"`
	CategoryIDs  []string `json:"category_ids,omitempty" yaml:"category_ids"`
	VariationIDs []string `json:"variation_ids,omitempty" yaml:"variation_ids"`
}

// Matches reports whether the line item satisfies the eligibility rules.
func (e Eligibility) Matches(item *LineItem) bool {
	if e.All {
		return true
	}
	for _, id := range e.ProductIDs {
		if id == item.Product.ID {
			return true
		}
	}
	for _, id := range e.CategoryIDs {
		if item.Product.HasCategory(id) {
			return true
		}
	}
	if vid := item.VariationID(); vid != "" {
		for _, id := range e.VariationIDs {
			if id == vid {
				return true
			}
		}
	}
	return false
}

// Campaign validation errors.
var (
	ErrCampaignUnknownType = errors.New("unknown campaign type")
	ErrCampaignNoPayload   = errors.New("campaign payload missing")
	ErrCampaignQuantities  = errors.New("invalid campaign quantities")
	ErrCampaignInactive    = errors.New("campaign not active")
)

// Validate checks the campaign definition. Invalid campaigns are never
// applied.
func (c *Campaign) Validate() error {
	switch c.Type {
	case CampaignTypeBuyXPayY:
		if c.BuyXPayY == nil {
			return ErrCampaignNoPayload
		}
		b := c.BuyXPayY
		if b.BuyQuantity <= 0 || b.PayQuantity <= 0 || b.PayQuantity > b.BuyQuantity {
			return fmt.Errorf("%w: buy %d pay %d", ErrCampaignQuantities, b.BuyQuantity, b.PayQuantity)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrCampaignUnknownType, c.Type)
	}
}

// IsActive reports whether now falls inside the campaign window. Both bounds
// are inclusive and a nil bound is unbounded.
func (c *Campaign) IsActive(now time.Time) bool {
	return InWindow(now, c.StartDate, c.EndDate)
}

// InWindow reports whether t lies within [start, end]. A nil bound is open.
func InWindow(t time.Time, start, end *time.Time) bool {
	if start != nil && t.Before(*start) {
		return false
	}
	if end != nil && t.After(*end) {
		return false
	}
	return true
}
