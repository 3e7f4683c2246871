package payment

import (
	"context"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/shopspring/decimal"
)

// Provider is an external payment processor.
type Provider interface {
	Method() domain.PaymentMethod
	// Warmup checks credentials and connectivity before buttons are shown.
	Warmup(ctx context.Context) error
	CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*Capture, error)
}

type OrderRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	LocalTotal  decimal.Decimal
	FXRate      decimal.Decimal
	ItemCount   int
}

type ProviderOrder struct {
	ID string `json:"id"`
	// ClientSecret is set by providers whose browser SDK confirms the payment itself.
	ClientSecret string `json:"clientSecret,omitempty"`
}

type Capture struct {
	OrderID string
	Status  string
}
