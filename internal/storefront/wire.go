package storefront

import (
	"strings"
	"time"

	"github.com/hienohelma/storefront/internal/domain"
	"github.com/hienohelma/storefront/pkg/slug"
)

// The storefront API speaks camelCase JSON. These types mirror its payloads
// and convert them to domain values.

type categoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type buyXPayYWire struct {
	BuyQuantity          int           `json:"buyQuantity"`
	PayQuantity          int           `json:"payQuantity"`
	ApplicableCategories []categoryRef `json:"applicableCategories"`
	ApplicableProducts   []string      `json:"applicableProductIds,omitempty"`
}

type campaignWire struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Description      string        `json:"description"`
	Type             string        `json:"type"`
	StartDate        *time.Time    `json:"startDate"`
	EndDate          *time.Time    `json:"endDate"`
	BuyXPayYCampaign *buyXPayYWire `json:"BuyXPayYCampaign"`
}

type storeConfigWire struct {
	Store struct {
		Currency string `json:"currency"`
	} `json:"store"`
	Campaigns []campaignWire `json:"campaigns"`
	Payments  struct {
		Methods []string `json:"methods"`
	} `json:"payments"`
}

func (w *storeConfigWire) toDomain() *domain.StoreConfig {
	cfg := &domain.StoreConfig{
		Currency:  w.Store.Currency,
		Campaigns: make([]domain.Campaign, 0, len(w.Campaigns)),
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	for _, c := range w.Campaigns {
		cfg.Campaigns = append(cfg.Campaigns, c.toDomain())
	}
	for _, m := range w.Payments.Methods {
		cfg.Payments.Methods = append(cfg.Payments.Methods, domain.PaymentMethod(strings.ToLower(m)))
	}
	return cfg
}

// toDomain maps the API campaign. Types the engine does not implement keep
// their lower-cased name so the engine reports them as unknown.
func (w *campaignWire) toDomain() domain.Campaign {
	c := domain.Campaign{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Type:        domain.CampaignType(strings.ToLower(w.Type)),
		StartDate:   w.StartDate,
		EndDate:     w.EndDate,
	}
	if b := w.BuyXPayYCampaign; b != nil {
		c.BuyXPayY = &domain.BuyXPayY{BuyQuantity: b.BuyQuantity, PayQuantity: b.PayQuantity}
		for _, cat := range b.ApplicableCategories {
			c.Eligibility.CategoryIDs = append(c.Eligibility.CategoryIDs, cat.ID)
		}
		c.Eligibility.ProductIDs = append(c.Eligibility.ProductIDs, b.ApplicableProducts...)
	}
	return c
}

type optionWire struct {
	OptionType struct {
		Name string `json:"name"`
	} `json:"optionType"`
	Value string `json:"value"`
}

type variationWire struct {
	ID            string       `json:"id"`
	Price         *int64       `json:"price"`
	SalePrice     *int64       `json:"salePrice"`
	SaleStartDate *time.Time   `json:"saleStartDate"`
	SaleEndDate   *time.Time   `json:"saleEndDate"`
	Quantity      *int         `json:"quantity"`
	Options       []optionWire `json:"options"`
	Images        []string     `json:"images"`
}

type productWire struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Price         int64           `json:"price"`
	SalePrice     *int64          `json:"salePrice"`
	SaleStartDate *time.Time      `json:"saleStartDate"`
	SaleEndDate   *time.Time      `json:"saleEndDate"`
	Quantity      *int            `json:"quantity"`
	Images        []string        `json:"images"`
	Categories    []categoryRef   `json:"categories"`
	Variations    []variationWire `json:"variations"`
}

func (w *productWire) toDomain() domain.Product {
	p := domain.Product{
		ID:            w.ID,
		Name:          w.Name,
		Slug:          w.Slug,
		Price:         w.Price,
		SalePrice:     w.SalePrice,
		SaleStartDate: w.SaleStartDate,
		SaleEndDate:   w.SaleEndDate,
		Quantity:      w.Quantity,
		Images:        w.Images,
	}
	if p.Slug == "" {
		p.Slug = slug.Make(w.Name)
	}
	for _, c := range w.Categories {
		p.CategoryIDs = append(p.CategoryIDs, c.ID)
	}
	for _, v := range w.Variations {
		dv := domain.Variation{
			ID:            v.ID,
			Price:         v.Price,
			SalePrice:     v.SalePrice,
			SaleStartDate: v.SaleStartDate,
			SaleEndDate:   v.SaleEndDate,
			Quantity:      v.Quantity,
			Images:        v.Images,
		}
		for _, o := range v.Options {
			dv.Options = append(dv.Options, domain.VariationOption{Type: o.OptionType.Name, Value: o.Value})
		}
		p.Variations = append(p.Variations, dv)
	}
	return p
}

type orderLineWire struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
	ItemType    string `json:"itemType"`
	ProductCode string `json:"productCode"`
	Product     struct {
		ID          string   `json:"id"`
		Images      []string `json:"images"`
		Slug        *string  `json:"slug"`
		VariationID string   `json:"variationId"`
		IsShipping  bool     `json:"isShipping"`
		Unavailable bool     `json:"unavailable"`
	} `json:"product"`
}

type orderWire struct {
	ID             string          `json:"id"`
	OrderNumber    int             `json:"orderNumber"`
	TotalAmount    int64           `json:"totalAmount"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	TrackingNumber *string         `json:"trackingNumber"`
	LineItems      []orderLineWire `json:"OrderLineItems"`
}

type ordersWire struct {
	Success bool        `json:"success"`
	Orders  []orderWire `json:"orders"`
}

func (w *orderWire) toDomain() domain.Order {
	o := domain.Order{
		ID:          w.ID,
		OrderNumber: w.OrderNumber,
		TotalAmount: w.TotalAmount,
		Status:      domain.OrderStatus(w.Status),
		CreatedAt:   w.CreatedAt,
		LineItems:   make([]domain.OrderLineItem, 0, len(w.LineItems)),
	}
	if w.TrackingNumber != nil {
		o.TrackingNumber = *w.TrackingNumber
	}
	for _, li := range w.LineItems {
		item := domain.OrderLineItem{
			ID:          li.ID,
			Name:        li.Name,
			Quantity:    li.Quantity,
			Price:       li.Price,
			ItemType:    li.ItemType,
			ProductCode: li.ProductCode,
			ProductID:   li.Product.ID,
			VariationID: li.Product.VariationID,
			IsShipping:  li.Product.IsShipping,
			Unavailable: li.Product.Unavailable,
		}
		if li.Product.Slug != nil {
			item.Slug = *li.Product.Slug
		}
		if len(li.Product.Images) > 0 {
			item.Image = li.Product.Images[0]
		}
		o.LineItems = append(o.LineItems, item)
	}
	return o
}

type paytrailWire struct {
	TransactionID string                   `json:"transactionId"`
	Reference     string                   `json:"reference"`
	Href          string                   `json:"href"`
	Groups        []domain.PaymentGroup    `json:"groups"`
	Providers     []domain.PaymentProvider `json:"providers"`
}

func (w *paytrailWire) toDomain() *domain.PaymentOptions {
	ref := w.TransactionID
	if ref == "" {
		ref = w.Reference
	}
	return &domain.PaymentOptions{
		Reference: ref,
		URL:       w.Href,
		Groups:    w.Groups,
		Providers: w.Providers,
	}
}

type stripeWire struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type pickupWire struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address struct {
		Street     string `json:"streetAddress"`
		PostalCode string `json:"postalCode"`
		City       string `json:"city"`
	} `json:"address"`
}

type shipmentMethodWire struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Price           int64        `json:"price"`
	Description     string       `json:"description"`
	PickupLocations []pickupWire `json:"pickupLocations"`
}

type shipmentWire struct {
	ShipmentMethods []shipmentMethodWire `json:"shipmentMethods"`
}

func (w *shipmentWire) toDomain() []domain.ShipmentMethod {
	methods := make([]domain.ShipmentMethod, 0, len(w.ShipmentMethods))
	for _, m := range w.ShipmentMethods {
		sm := domain.ShipmentMethod{
			ID:          m.ID,
			Name:        m.Name,
			Price:       m.Price,
			Description: m.Description,
		}
		for _, l := range m.PickupLocations {
			sm.Locations = append(sm.Locations, domain.PickupLocation{
				ID:         l.ID,
				Name:       l.Name,
				Address:    l.Address.Street,
				PostalCode: l.Address.PostalCode,
				City:       l.Address.City,
			})
		}
		methods = append(methods, sm)
	}
	return methods
}
