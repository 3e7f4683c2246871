package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/checkout"
	"github.com/fjod/fyz_store/internal/domain"
	"go.uber.org/zap"
)

const emptyCartMessage = "Tu carrito está vacío. Te llevamos de vuelta al carrito."

type CheckoutHandler struct {
	checkout   *checkout.Orchestrator
	carts      *cart.Service
	views      *renderer
	stripeKey  string
	emptyDelay time.Duration
	log        *zap.Logger
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.checkout.Start(ctx, getSession(ctx), getIdentity(ctx))
	h.respond(w, r, v, err)
}

func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.views.page(w, http.StatusBadRequest, "error", h.errorPage(r, "Solicitud inválida."))
		return
	}

	draft := domain.ShippingDraft{
		FirstName:  r.PostForm.Get("firstName"),
		LastName:   r.PostForm.Get("lastName"),
		Email:      r.PostForm.Get("email"),
		Phone:      r.PostForm.Get("phone"),
		Address:    r.PostForm.Get("address"),
		City:       r.PostForm.Get("city"),
		PostalCode: r.PostForm.Get("postalCode"),
		Country:    r.PostForm.Get("country"),
	}

	v, err := h.checkout.SubmitShipping(ctx, getSession(ctx), draft)
	h.respond(w, r, v, err)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.checkout.Back(ctx, getSession(ctx))
	h.respond(w, r, v, err)
}

func (h *CheckoutHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		h.views.page(w, http.StatusBadRequest, "error", h.errorPage(r, "Solicitud inválida."))
		return
	}

	v, err := h.checkout.SelectMethod(ctx, getSession(ctx), domain.PaymentMethod(r.PostForm.Get("method")))
	h.respond(w, r, v, err)
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, r *http.Request, v *checkout.View, err error) {
	var verr *checkout.ValidationError
	switch {
	case err == nil:
		h.views.page(w, http.StatusOK, "checkout", h.checkoutPage(r, v))
	case errors.As(err, &verr) && v != nil:
		h.views.page(w, http.StatusUnprocessableEntity, "checkout", h.checkoutPage(r, v))
	case errors.Is(err, checkout.ErrEmptyCart):
		// the notice is shown briefly, then the browser goes back to the cart
		w.Header().Set("Refresh", fmt.Sprintf("%d; url=/cart", int(h.emptyDelay.Seconds())))
		h.views.page(w, http.StatusOK, "error", h.errorPage(r, emptyCartMessage))
	case errors.Is(err, checkout.ErrIllegalTransition):
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
	case errors.Is(err, checkout.ErrUnknownMethod):
		h.views.page(w, http.StatusBadRequest, "error", h.errorPage(r, "Método de pago no disponible."))
	default:
		h.log.Error("checkout failed", zap.Error(err))
		h.views.page(w, http.StatusInternalServerError, "error", h.errorPage(r, "Ocurrió un error inesperado."))
	}
}

func (h *CheckoutHandler) checkoutPage(r *http.Request, v *checkout.View) pageData {
	return pageData{
		Title:     "Checkout",
		Cart:      v.Cart,
		Identity:  getIdentity(r.Context()),
		StripeKey: h.stripeKey,
		Content:   v,
	}
}

func (h *CheckoutHandler) errorPage(r *http.Request, message string) pageData {
	ctx := r.Context()
	return pageData{
		Title:    "Checkout",
		Cart:     h.carts.Load(ctx, getSession(ctx)),
		Identity: getIdentity(ctx),
		Content:  message,
	}
}
