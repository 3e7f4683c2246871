package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownOrder      = errors.New("unknown payment order")
	ErrCaptureInProgress = errors.New("payment order is already being captured")
)

// pendingOrder is what the buyer was charged for. It is written when the
// provider order is created and consumed by the first successful capture.
type pendingOrder struct {
	Method       domain.PaymentMethod  `json:"method"`
	Items        []domain.CartLineItem `json:"items"`
	TotalLocal   decimal.Decimal       `json:"totalLocal"`
	TotalPayment decimal.Decimal       `json:"totalPayment"`
	Currency     string                `json:"currency"`
	FXRate       decimal.Decimal       `json:"fxRate"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func (a *Adapter) savePending(ctx context.Context, session, providerOrderID string, p pendingOrder) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending order: %w", err)
	}
	if err := a.slots.Set(ctx, session, slots.Pending(providerOrderID), data); err != nil {
		return fmt.Errorf("store pending order: %w", err)
	}
	return nil
}

// loadPending returns ErrUnknownOrder when the id was never created for this
// session, was created for another method, or was already captured.
func (a *Adapter) loadPending(ctx context.Context, session, providerOrderID string, method domain.PaymentMethod) (*pendingOrder, error) {
	data, err := a.slots.Get(ctx, session, slots.Pending(providerOrderID))
	if err != nil {
		if errors.Is(err, slots.ErrSlotEmpty) {
			return nil, ErrUnknownOrder
		}
		return nil, fmt.Errorf("read pending order: %w", err)
	}
	var p pendingOrder
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, ErrUnknownOrder
	}
	if p.Method != method || len(p.Items) == 0 {
		return nil, ErrUnknownOrder
	}
	return &p, nil
}

// claim marks a provider order as being captured. Only one caller holds it.
func (a *Adapter) claim(providerOrderID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.capturing[providerOrderID] {
		return false
	}
	a.capturing[providerOrderID] = true
	return true
}

func (a *Adapter) unclaim(providerOrderID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.capturing, providerOrderID)
}
