package domain

// PaymentMethod identifies a payment provider integration.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentMethodPaytrail PaymentMethod = "paytrail"
	PaymentMethodStripe   PaymentMethod = "stripe"
)

// StoreConfig is the subset of the store configuration this service uses.
type StoreConfig struct {
	Currency  string        `json:"currency" yaml:"currency"`
	Campaigns []Campaign    `json:"campaigns" yaml:"campaigns"`
	Payments  PaymentConfig `json:"payments" yaml:"payments"`
}

// PaymentConfig lists the payment methods enabled for the store.
type PaymentConfig struct {
	Methods []PaymentMethod `json:"methods" yaml:"methods"`
}

// PreferredPaymentMethod picks the checkout provider: Paytrail when enabled,
// otherwise Stripe. ok is false when neither is configured.
func (c *StoreConfig) PreferredPaymentMethod() (PaymentMethod, bool) {
	for _, want := range []PaymentMethod{PaymentMethodPaytrail, PaymentMethodStripe} {
		for _, m := range c.Payments.Methods {
			if m == want {
				return m, true
			}
		}
	}
	return "", false
}
