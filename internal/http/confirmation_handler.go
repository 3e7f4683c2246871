package http

import (
	"net/http"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/confirmation"
	"go.uber.org/zap"
)

type ConfirmationHandler struct {
	reader *confirmation.Reader
	carts  *cart.Service
	views  *renderer
	log    *zap.Logger
}

// Show renders the confirmation for the order named in the query string. Once
// a found order has been written out, the finished checkout is cleaned up.
func (h *ConfirmationHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := getSession(ctx)

	v := h.reader.Read(ctx, session, confirmation.OrderIDFromQuery(r.URL.Query()))
	if !v.Found() {
		h.log.Info("confirmation without order", zap.String("order_id", v.OrderID))
	}

	c := h.carts.Load(ctx, session)
	if v.Found() {
		// the order was paid, so the header already shows an empty cart
		c = cart.Recompute(nil)
	}

	ok := h.views.page(w, http.StatusOK, "confirmation", pageData{
		Title:    "Confirmación",
		Cart:     c,
		Identity: getIdentity(ctx),
		Content:  v,
	})
	if ok && v.Found() {
		h.reader.Cleanup(ctx, session)
	}
}
