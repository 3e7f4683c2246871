package domain

type CheckoutStep string

const (
	CheckoutStepShipping CheckoutStep = "shipping"
	CheckoutStepPayment  CheckoutStep = "payment"
)

func (s CheckoutStep) String() string {
	return string(s)
}

// CanTransitionTo reports whether the checkout may move from s to next.
// Re-entering the current step is allowed.
func (s CheckoutStep) CanTransitionTo(next CheckoutStep) bool {
	switch s {
	case CheckoutStepShipping:
		return next == CheckoutStepShipping || next == CheckoutStepPayment
	case CheckoutStepPayment:
		return next == CheckoutStepPayment || next == CheckoutStepShipping
	default:
		return next == CheckoutStepShipping
	}
}

type PaymentMethod string

const (
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCard   PaymentMethod = "card"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PaymentMethodPayPal, PaymentMethodCard:
		return PaymentMethod(s), true
	}
	return "", false
}

const DefaultCountry = "CR"

// ShippingDraft is the customer's delivery data as captured by the shipping form.
type ShippingDraft struct {
	FirstName  string `json:"firstName" bson:"firstName" validate:"required"`
	LastName   string `json:"lastName" bson:"lastName" validate:"required"`
	Email      string `json:"email" bson:"email" validate:"required"`
	Phone      string `json:"phone" bson:"phone" validate:"required"`
	Address    string `json:"address" bson:"address" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode"`
	Country    string `json:"country" bson:"country"`
}

func (d ShippingDraft) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// Identity is the signed-in customer, if any.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}
