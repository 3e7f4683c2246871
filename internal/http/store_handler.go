package http

import (
	"net/http"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/domain"
	"go.uber.org/zap"
)

const orderHistoryLimit = 50

type StoreHandler struct {
	catalog ProductFinder
	carts   *cart.Service
	orders  OrderLister
	views   *renderer
	log     *zap.Logger
}

func (h *StoreHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := getSession(ctx)

	products, err := h.catalog.Products(ctx)
	if err != nil {
		h.log.Error("failed to list products", zap.Error(err))
		products = nil
	}

	h.views.page(w, http.StatusOK, "home", pageData{
		Title:        "Inicio",
		Cart:         h.carts.Load(ctx, session),
		DropdownOpen: dropdownRequested(r),
		Identity:     getIdentity(ctx),
		Content:      products,
	})
}

// Orders lists the signed-in customer's orders, newest first.
func (h *StoreHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who := getIdentity(ctx)

	var list []*domain.Order
	flash := ""
	if !who.IsAnonymous() {
		var err error
		list, err = h.orders.ListByUser(ctx, who.UserID, orderHistoryLimit)
		if err != nil {
			h.log.Error("failed to list orders", zap.String("user_id", who.UserID), zap.Error(err))
			flash = "No pudimos cargar tus pedidos. Intenta de nuevo más tarde."
		}
	}

	h.views.page(w, http.StatusOK, "orders", pageData{
		Title:    "Mis pedidos",
		Cart:     h.carts.Load(ctx, getSession(ctx)),
		Identity: who,
		Flash:    flash,
		Content:  list,
	})
}

func dropdownRequested(r *http.Request) bool {
	return r.URL.Query().Get("cart") == "open"
}
