package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/pkg/circuitbreaker"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.uber.org/zap"
)

const (
	minCardCents            = 50
	maxCardCents            = 9_999_999
	cardStatementDescriptor = "FYZ STORE"
)

var cardCurrencies = map[string]bool{"usd": true, "eur": true, "gbp": true}

// StripeProvider takes card payments through PaymentIntents with automatic capture.
// The browser confirms the intent with its client secret; CaptureOrder only verifies it.
type StripeProvider struct {
	api     *client.API
	breaker *circuitbreaker.Breaker[*stripe.PaymentIntent]
}

func NewStripeProvider(secretKey string, log *zap.Logger) *StripeProvider {
	return &StripeProvider{
		api:     client.New(secretKey, nil),
		breaker: circuitbreaker.New[*stripe.PaymentIntent](circuitbreaker.DefaultSettings("stripe"), log),
	}
}

func (s *StripeProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodCard
}

func (s *StripeProvider) Warmup(context.Context) error {
	return nil
}

func (s *StripeProvider) CreateOrder(ctx context.Context, req OrderRequest) (*ProviderOrder, error) {
	params, err := intentParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx

	pi, err := s.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return s.api.PaymentIntents.New(params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create intent failed: %w", err)
	}
	return &ProviderOrder{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *StripeProvider) CaptureOrder(ctx context.Context, intentID string) (*Capture, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return s.api.PaymentIntents.Get(intentID, params)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe get intent failed: %w", err)
	}

	if pi.Status == stripe.PaymentIntentStatusRequiresCapture {
		captureParams := &stripe.PaymentIntentCaptureParams{}
		captureParams.Context = ctx
		pi, err = s.breaker.Execute(func() (*stripe.PaymentIntent, error) {
			return s.api.PaymentIntents.Capture(intentID, captureParams)
		})
		if err != nil {
			return nil, fmt.Errorf("stripe capture failed: %w", err)
		}
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: stripe status %s", ErrNotCompleted, pi.Status)
	}
	return &Capture{OrderID: pi.ID, Status: string(pi.Status)}, nil
}

func intentParams(req OrderRequest) (*stripe.PaymentIntentParams, error) {
	cents := ToCents(req.Amount)
	if cents < minCardCents || cents > maxCardCents {
		return nil, fmt.Errorf("%w: %d cents outside card limits", ErrInvalidAmount, cents)
	}
	currency := strings.ToLower(req.Currency)
	if !cardCurrencies[currency] {
		return nil, fmt.Errorf("unsupported card currency %q", req.Currency)
	}

	params := &stripe.PaymentIntentParams{
		Amount:              stripe.Int64(cents),
		Currency:            stripe.String(currency),
		Description:         stripe.String(req.Description),
		StatementDescriptor: stripe.String(cardStatementDescriptor),
		CaptureMethod:       stripe.String(string(stripe.PaymentIntentCaptureMethodAutomatic)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("totalCRC", req.LocalTotal.String())
	params.AddMetadata("fxRate", req.FXRate.String())
	params.AddMetadata("itemCount", strconv.Itoa(req.ItemCount))
	return params, nil
}
