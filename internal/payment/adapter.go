package payment

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	PaymentCurrency  string
	FXRate           decimal.Decimal
	Description      string
	ContainerID      string
	ConfirmationPath string
	RedirectDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		PaymentCurrency:  "USD",
		FXRate:           decimal.NewFromInt(520),
		Description:      "Compra en F&Z Store",
		ContainerID:      "paypal-button-container",
		ConfirmationPath: "/confirmacion",
		RedirectDelay:    1500 * time.Millisecond,
	}
}

// ButtonsView is what the page needs to mount the provider buttons.
type ButtonsView struct {
	ContainerID   string
	ScriptURL     string
	AmountLocal   decimal.Decimal
	AmountPayment decimal.Decimal
	Currency      string
}

// Adapter drives one payment attempt per session: rendering the buttons,
// creating the provider order and turning the provider callbacks into a CaptureResult.
type Adapter struct {
	cfg       Config
	carts     *cart.Service
	slots     slots.Store
	sdk       *SDK
	persister *Persister
	providers map[domain.PaymentMethod]Provider
	log       *zap.Logger

	mu        sync.Mutex
	rendering map[string]bool
	capturing map[string]bool
}

func NewAdapter(cfg Config, carts *cart.Service, store slots.Store, sdk *SDK, persister *Persister, log *zap.Logger, providers ...Provider) *Adapter {
	a := &Adapter{
		cfg:       cfg,
		carts:     carts,
		slots:     store,
		sdk:       sdk,
		persister: persister,
		providers: make(map[domain.PaymentMethod]Provider, len(providers)),
		log:       log,
		rendering: make(map[string]bool),
		capturing: make(map[string]bool),
	}
	for _, p := range providers {
		a.providers[p.Method()] = p
	}
	return a
}

func (a *Adapter) Supports(method domain.PaymentMethod) bool {
	_, ok := a.providers[method]
	return ok
}

// Render prepares the PayPal buttons for the session's current cart.
// A second call while one is in progress for the same session is rejected.
func (a *Adapter) Render(ctx context.Context, session string) (*ButtonsView, error) {
	if !a.Supports(domain.PaymentMethodPayPal) || a.sdk == nil {
		return nil, ErrProviderUnavailable
	}
	if !a.acquire(session) {
		return nil, ErrRenderInProgress
	}
	defer a.Release(session)

	if !a.sdk.Load(ctx) {
		return nil, ErrSDKUnavailable
	}

	c := a.carts.Load(ctx, session)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	amount := ToPaymentAmount(c.Total, a.cfg.FXRate)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &ButtonsView{
		ContainerID:   a.cfg.ContainerID,
		ScriptURL:     a.sdk.ScriptURL(),
		AmountLocal:   c.Total,
		AmountPayment: amount,
		Currency:      a.cfg.PaymentCurrency,
	}, nil
}

// CreateOrder opens an order with the provider for the current cart total and
// remembers the priced cart under the provider order id. Approve builds the
// order from that record, not from whatever the cart holds at capture time.
func (a *Adapter) CreateOrder(ctx context.Context, session string, method domain.PaymentMethod) (*ProviderOrder, error) {
	p, ok := a.providers[method]
	if !ok {
		return nil, ErrProviderUnavailable
	}

	c := a.carts.Load(ctx, session)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	amount := ToPaymentAmount(c.Total, a.cfg.FXRate)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	order, err := p.CreateOrder(ctx, OrderRequest{
		Amount:      amount,
		Currency:    a.cfg.PaymentCurrency,
		Description: a.cfg.Description,
		LocalTotal:  c.Total,
		FXRate:      a.cfg.FXRate,
		ItemCount:   c.Count(),
	})
	if err != nil {
		a.log.Error("create order failed", zap.String("method", string(method)), zap.Error(err))
		return nil, err
	}

	pending := pendingOrder{
		Method:       method,
		Items:        c.Items,
		TotalLocal:   c.Total,
		TotalPayment: amount,
		Currency:     a.cfg.PaymentCurrency,
		FXRate:       a.cfg.FXRate,
		CreatedAt:    time.Now(),
	}
	if err := a.savePending(ctx, session, order.ID, pending); err != nil {
		a.log.Error("pending order write failed",
			zap.String("provider_order_id", order.ID), zap.Error(err))
		return nil, err
	}
	return order, nil
}

// Approve captures an approved provider order and persists it. Only ids
// opened by CreateOrder for this session are captured, and each one once.
func (a *Adapter) Approve(ctx context.Context, session string, who domain.Identity, method domain.PaymentMethod, providerOrderID string) CaptureResult {
	p, ok := a.providers[method]
	if !ok {
		a.Release(session)
		return Failed(ErrProviderUnavailable.Error())
	}

	if !a.claim(providerOrderID) {
		a.Release(session)
		return Failed(ErrCaptureInProgress.Error())
	}
	defer a.unclaim(providerOrderID)

	pending, err := a.loadPending(ctx, session, providerOrderID, method)
	if err != nil {
		a.Release(session)
		a.log.Warn("capture rejected",
			zap.String("method", string(method)),
			zap.String("provider_order_id", providerOrderID),
			zap.Error(err))
		if errors.Is(err, ErrUnknownOrder) {
			return Failed(ErrUnknownOrder.Error())
		}
		return Failed("capture failed")
	}

	captured, err := p.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		a.Release(session)
		a.log.Error("payment capture failed",
			zap.String("method", string(method)),
			zap.String("provider_order_id", providerOrderID),
			zap.Error(err))
		reason := "capture failed"
		if errors.Is(err, ErrNotCompleted) {
			reason = "payment not completed"
		}
		return Failed(reason)
	}

	if err := a.slots.Delete(ctx, session, slots.Pending(providerOrderID)); err != nil {
		a.log.Warn("pending order clear failed",
			zap.String("provider_order_id", providerOrderID), zap.Error(err))
	}

	order := &domain.Order{
		OrderID:         captured.OrderID,
		UserID:          who.UserID,
		Email:           who.Email,
		Status:          domain.OrderStatusSolicitandoEnvio,
		PaymentMethod:   method,
		TotalLocal:      pending.TotalLocal,
		TotalPayment:    pending.TotalPayment,
		PaymentCurrency: pending.Currency,
		Items:           domain.OrderItemsFromCart(pending.Items),
		CreatedAt:       time.Now(),
	}

	res := Captured(order.OrderID, pending.TotalPayment, pending.Currency)
	res.Source = a.persister.Persist(ctx, session, order)
	res.RedirectURL = a.confirmationURL(order.OrderID)

	a.log.Info("payment captured",
		zap.String("order_id", order.OrderID),
		zap.String("method", string(method)),
		zap.String("amount", pending.TotalPayment.StringFixed(2)),
		zap.String("source", string(res.Source)))
	return res
}

func (a *Adapter) Cancel(session string) CaptureResult {
	a.Release(session)
	return Cancelled()
}

func (a *Adapter) Fail(session, reason string) CaptureResult {
	a.Release(session)
	a.log.Warn("payment provider reported an error", zap.String("reason", reason))
	return Failed(reason)
}

// RedirectDelay is how long the browser waits before following RedirectURL.
func (a *Adapter) RedirectDelay() time.Duration {
	return a.cfg.RedirectDelay
}

func (a *Adapter) confirmationURL(orderID string) string {
	return a.cfg.ConfirmationPath + "?" + url.Values{"id": {orderID}}.Encode()
}

func (a *Adapter) acquire(session string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rendering[session] {
		return false
	}
	a.rendering[session] = true
	return true
}

// Release clears the session's render flag. It is safe to call when no render is in progress.
func (a *Adapter) Release(session string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.rendering, session)
}
