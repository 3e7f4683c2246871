package payment

import (
	"context"
	"fmt"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/pkg/circuitbreaker"
	"github.com/plutov/paypal/v4"
	"go.uber.org/zap"
)

const paypalStatusCompleted = "COMPLETED"

type PayPalProvider struct {
	client  *paypal.Client
	breaker *circuitbreaker.Breaker[any]
}

// NewPayPalProvider builds a REST client for the sandbox or live environment.
func NewPayPalProvider(clientID, secret string, sandbox bool, log *zap.Logger) (*PayPalProvider, error) {
	base := paypal.APIBaseLive
	if sandbox {
		base = paypal.APIBaseSandBox
	}
	c, err := paypal.NewClient(clientID, secret, base)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}
	return &PayPalProvider{
		client:  c,
		breaker: circuitbreaker.New[any](circuitbreaker.DefaultSettings("paypal"), log),
	}, nil
}

func (p *PayPalProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodPayPal
}

func (p *PayPalProvider) Warmup(ctx context.Context) error {
	_, err := p.breaker.Execute(func() (any, error) {
		return p.client.GetAccessToken(ctx)
	})
	if err != nil {
		return fmt.Errorf("paypal token request failed: %w", err)
	}
	return nil
}

func (p *PayPalProvider) CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error) {
	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount.StringFixed(2),
		},
		Description: req.Description,
	}}

	res, err := p.breaker.Execute(func() (any, error) {
		return p.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("paypal create order failed: %w", err)
	}
	order := res.(*paypal.Order)
	return &ProviderOrder{ID: order.ID}, nil
}

func (p *PayPalProvider) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	res, err := p.breaker.Execute(func() (any, error) {
		return p.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	})
	if err != nil {
		return nil, fmt.Errorf("paypal capture failed: %w", err)
	}

	captured := res.(*paypal.CaptureOrderResponse)
	if captured.Status != paypalStatusCompleted {
		return nil, fmt.Errorf("%w: paypal status %s", ErrNotCompleted, captured.Status)
	}
	id := captured.ID
	if id == "" {
		id = orderID
	}
	return &Capture{OrderID: id, Status: captured.Status}, nil
}
