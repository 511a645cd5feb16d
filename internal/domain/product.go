package domain

import "time"

// Product is a storefront product as delivered by the storefront API.
// All prices are in minor currency units (cents).
type Product struct {
	ID            string      `json:"id" yaml:"id"`
	Name          string      `json:"name" yaml:"name"`
	Slug          string      `json:"slug,omitempty" yaml:"slug"`
	CategoryIDs   []string    `json:"category_ids,omitempty" yaml:"category_ids"`
	Price         int64       `json:"price" yaml:"price"`
	SalePrice     *int64      `json:"sale_price,omitempty" yaml:"sale_price"`
	SaleStartDate *time.Time  `json:"sale_start_date,omitempty" yaml:"sale_start_date"`
	SaleEndDate   *time.Time  `json:"sale_end_date,omitempty" yaml:"sale_end_date"`
	Quantity      *int        `json:"quantity,omitempty" yaml:"quantity"` // nil means unlimited stock
	Images        []string    `json:"images,omitempty" yaml:"images"`
	Variations    []Variation `json:"variations,omitempty" yaml:"variations"`
}

// Variation is a purchasable variant of a product. A nil field inherits the
// product's value.
type Variation struct {
	ID            string     `json:"id" yaml:"id"`
	Price         *int64     `json:"price,omitempty" yaml:"price"`
	SalePrice     *int64     `json:"sale_price,omitempty" yaml:"sale_price"`
	SaleStartDate *time.Time `json:"sale_start_date,omitempty" yaml:"sale_start_date"`
	SaleEndDate   *time.Time `json:"sale_end_date,omitempty" yaml:"sale_end_date"`
	// SaleWindowSet marks the variation's sale dates as authoritative, even when
	// both are nil. Combined with NoSale it disables the product's sale.
	SaleWindowSet bool              `json:"sale_window_set,omitempty" yaml:"sale_window_set"`
	NoSale        bool              `json:"no_sale,omitempty" yaml:"no_sale"`
	Quantity      *int              `json:"quantity,omitempty" yaml:"quantity"`
	Options       []VariationOption `json:"options,omitempty" yaml:"options"`
	Images        []string          `json:"images,omitempty" yaml:"images"`
}

// VariationOption is one option value of a variation, e.g. size M.
type VariationOption struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

// FindVariation returns the variation with the given ID, or nil.
func (p *Product) FindVariation(id string) *Variation {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i]
		}
	}
	return nil
}

// HasCategory reports whether the product belongs to the given category.
func (p *Product) HasCategory(categoryID string) bool {
	for _, c := range p.CategoryIDs {
		if c == categoryID {
			return true
		}
	}
	return false
}
