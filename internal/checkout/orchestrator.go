package checkout

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/payment"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ButtonRenderer interface {
	Render(ctx context.Context, session string) (*payment.ButtonsView, error)
	Supports(method domain.PaymentMethod) bool
}

// state is what survives a reload of the checkout page.
type state struct {
	Step   domain.CheckoutStep  `json:"step"`
	Method domain.PaymentMethod `json:"method"`
}

type BannerKind string

const (
	BannerError BannerKind = "error"
	BannerInfo  BannerKind = "info"
)

type Banner struct {
	Kind BannerKind
	Text string
}

type View struct {
	Step    domain.CheckoutStep
	Method  domain.PaymentMethod
	Methods []domain.PaymentMethod
	Cart    *domain.Cart
	Draft   domain.ShippingDraft
	Buttons *payment.ButtonsView
	Banner  *Banner
}

type Orchestrator struct {
	slots    slots.Store
	carts    *cart.Service
	buttons  ButtonRenderer
	validate *validator.Validate
	log      *zap.Logger
}

func NewOrchestrator(store slots.Store, carts *cart.Service, buttons ButtonRenderer, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		slots:    store,
		carts:    carts,
		buttons:  buttons,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Start opens the checkout. An empty cart is refused before anything else is shown.
func (o *Orchestrator) Start(ctx context.Context, session string, who domain.Identity) (*View, error) {
	c := o.carts.Load(ctx, session)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	st := o.loadState(ctx, session)
	draft := o.loadDraft(ctx, session)
	if draft.Email == "" {
		draft.Email = who.Email
	}

	v := o.view(st, c, draft)
	if st.Step == domain.CheckoutStepPayment {
		o.renderButtons(ctx, session, v)
	}
	return v, nil
}

// SubmitShipping validates the draft and, if it passes, moves to the payment step.
func (o *Orchestrator) SubmitShipping(ctx context.Context, session string, draft domain.ShippingDraft) (*View, error) {
	c := o.carts.Load(ctx, session)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	st := o.loadState(ctx, session)
	draft = normalizeDraft(draft)
	if err := validateDraft(o.validate, draft); err != nil {
		v := o.view(st, c, draft)
		v.Banner = &Banner{Kind: BannerError, Text: err.Error()}
		return v, err
	}
	if !st.Step.CanTransitionTo(domain.CheckoutStepPayment) {
		return nil, ErrIllegalTransition
	}

	o.saveDraft(ctx, session, draft)
	st.Step = domain.CheckoutStepPayment
	o.saveState(ctx, session, st)

	v := o.view(st, c, draft)
	o.renderButtons(ctx, session, v)
	return v, nil
}

// Back returns to the shipping step keeping the entered data.
func (o *Orchestrator) Back(ctx context.Context, session string) (*View, error) {
	st := o.loadState(ctx, session)
	if !st.Step.CanTransitionTo(domain.CheckoutStepShipping) {
		return nil, ErrIllegalTransition
	}
	st.Step = domain.CheckoutStepShipping
	o.saveState(ctx, session, st)

	return o.view(st, o.carts.Load(ctx, session), o.loadDraft(ctx, session)), nil
}

// SelectMethod switches the payment method. Choosing PayPal on the payment step re-renders its buttons.
func (o *Orchestrator) SelectMethod(ctx context.Context, session string, method domain.PaymentMethod) (*View, error) {
	if _, ok := domain.ParsePaymentMethod(string(method)); !ok {
		return nil, ErrUnknownMethod
	}

	st := o.loadState(ctx, session)
	st.Method = method
	o.saveState(ctx, session, st)

	v := o.view(st, o.carts.Load(ctx, session), o.loadDraft(ctx, session))
	if st.Step == domain.CheckoutStepPayment {
		o.renderButtons(ctx, session, v)
	}
	return v, nil
}

func (o *Orchestrator) view(st state, c *domain.Cart, draft domain.ShippingDraft) *View {
	var methods []domain.PaymentMethod
	for _, m := range []domain.PaymentMethod{domain.PaymentMethodPayPal, domain.PaymentMethodCard} {
		if o.buttons.Supports(m) {
			methods = append(methods, m)
		}
	}
	return &View{
		Step:    st.Step,
		Method:  st.Method,
		Methods: methods,
		Cart:    c,
		Draft:   draft,
	}
}

func (o *Orchestrator) renderButtons(ctx context.Context, session string, v *View) {
	if v.Method != domain.PaymentMethodPayPal {
		return
	}

	buttons, err := o.buttons.Render(ctx, session)
	switch {
	case err == nil:
		v.Buttons = buttons
	case errors.Is(err, payment.ErrRenderInProgress):
		v.Banner = &Banner{Kind: BannerInfo, Text: "Cargando PayPal..."}
	case errors.Is(err, payment.ErrSDKUnavailable):
		v.Banner = &Banner{Kind: BannerError, Text: "PayPal no disponible. Intenta desactivar AdBlock."}
	case errors.Is(err, payment.ErrEmptyCart):
		v.Banner = &Banner{Kind: BannerError, Text: "Carrito vacío"}
	case errors.Is(err, payment.ErrInvalidAmount):
		v.Banner = &Banner{Kind: BannerError, Text: "Monto inválido"}
	default:
		o.log.Warn("paypal buttons unavailable", zap.String("session", session), zap.Error(err))
		v.Banner = &Banner{Kind: BannerError, Text: "PayPal no está disponible en este momento."}
	}
}

func (o *Orchestrator) loadState(ctx context.Context, session string) state {
	st := state{Step: domain.CheckoutStepShipping, Method: domain.PaymentMethodPayPal}

	data, err := o.slots.Get(ctx, session, slots.CheckoutStep)
	if err != nil {
		if !errors.Is(err, slots.ErrSlotEmpty) {
			o.log.Warn("checkout step read failed", zap.String("session", session), zap.Error(err))
		}
		return st
	}
	var stored state
	if err := json.Unmarshal(data, &stored); err != nil {
		return st
	}
	if stored.Step == domain.CheckoutStepPayment {
		st.Step = stored.Step
	}
	if m, ok := domain.ParsePaymentMethod(string(stored.Method)); ok {
		st.Method = m
	}
	return st
}

func (o *Orchestrator) saveState(ctx context.Context, session string, st state) {
	data, _ := json.Marshal(st)
	if err := o.slots.Set(ctx, session, slots.CheckoutStep, data); err != nil {
		o.log.Warn("checkout step write failed", zap.String("session", session), zap.Error(err))
	}
}

func (o *Orchestrator) loadDraft(ctx context.Context, session string) domain.ShippingDraft {
	draft := domain.ShippingDraft{Country: domain.DefaultCountry}

	data, err := o.slots.Get(ctx, session, slots.Shipping)
	if err != nil {
		return draft
	}
	if err := json.Unmarshal(data, &draft); err != nil {
		o.log.Warn("shipping draft unreadable", zap.String("session", session), zap.Error(err))
		return domain.ShippingDraft{Country: domain.DefaultCountry}
	}
	if draft.Country == "" {
		draft.Country = domain.DefaultCountry
	}
	return draft
}

func (o *Orchestrator) saveDraft(ctx context.Context, session string, draft domain.ShippingDraft) {
	data, _ := json.Marshal(draft)
	if err := o.slots.Set(ctx, session, slots.Shipping, data); err != nil {
		o.log.Warn("shipping draft write failed", zap.String("session", session), zap.Error(err))
	}
}
