package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/payment"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxReasonLength bounds the provider error text we accept from the browser.
const maxReasonLength = 500

type PaymentHandler struct {
	payments Payments
	log      *zap.Logger
}

type ErrorReportDTO struct {
	Reason string `json:"reason"`
}

// CaptureResponseDTO is what the buttons script needs to show the outcome and redirect.
type CaptureResponseDTO struct {
	payment.CaptureResult
	OutcomeName     string `json:"outcome"`
	Message         string `json:"message"`
	Banner          string `json:"banner"`
	RedirectDelayMs int64  `json:"redirectDelayMs,omitempty"`
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	method, ok := h.method(w, r)
	if !ok {
		return
	}

	order, err := h.payments.CreateOrder(ctx, getSession(ctx), method)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrEmptyCart):
			respondError(w, h.log, http.StatusConflict, "empty_cart", "Tu carrito está vacío.")
		case errors.Is(err, payment.ErrInvalidAmount):
			respondError(w, h.log, http.StatusUnprocessableEntity, "invalid_amount", "El monto del pedido no es válido.")
		case errors.Is(err, payment.ErrProviderUnavailable):
			respondError(w, h.log, http.StatusNotFound, "provider_unavailable", "Método de pago no disponible.")
		default:
			respondError(w, h.log, http.StatusBadGateway, "provider_error", payment.Failed("").Message())
		}
		return
	}

	respondJSON(w, h.log, http.StatusCreated, order)
}

func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	method, ok := h.method(w, r)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondError(w, h.log, http.StatusBadRequest, "invalid_order_id", "missing provider order id")
		return
	}

	res := h.payments.Approve(ctx, getSession(ctx), getIdentity(ctx), method, orderID)
	status := http.StatusOK
	if res.Outcome == payment.OutcomeFailed {
		status = http.StatusPaymentRequired
	}
	h.result(w, status, res)
}

func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.method(w, r); !ok {
		return
	}
	h.result(w, http.StatusOK, h.payments.Cancel(getSession(r.Context())))
}

// Error records a failure reported by the provider's browser SDK.
func (h *PaymentHandler) Error(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.method(w, r); !ok {
		return
	}

	var req ErrorReportDTO
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, h.log, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	reason := req.Reason
	if len(reason) > maxReasonLength {
		reason = reason[:maxReasonLength]
	}
	if reason == "" {
		reason = "provider error"
	}

	h.result(w, http.StatusOK, h.payments.Fail(getSession(r.Context()), reason))
}

func (h *PaymentHandler) method(w http.ResponseWriter, r *http.Request) (domain.PaymentMethod, bool) {
	m, ok := domain.ParsePaymentMethod(chi.URLParam(r, "method"))
	if !ok {
		respondError(w, h.log, http.StatusNotFound, "unknown_method", "Método de pago no disponible.")
		return "", false
	}
	return m, true
}

func (h *PaymentHandler) result(w http.ResponseWriter, status int, res payment.CaptureResult) {
	resp := CaptureResponseDTO{
		CaptureResult: res,
		OutcomeName:   res.Outcome.String(),
		Message:       res.Message(),
		Banner:        res.Banner(),
	}
	if res.RedirectURL != "" {
		resp.RedirectDelayMs = h.payments.RedirectDelay().Milliseconds()
	}
	respondJSON(w, h.log, status, resp)
}
