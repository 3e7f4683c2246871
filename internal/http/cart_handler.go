package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/catalog"
	"github.com/fjod/fyz_store/internal/domain"
	"go.uber.org/zap"
)

// Viewports wider than this open the cart dropdown after an add.
const dropdownMinViewport = 768

type CartHandler struct {
	catalog ProductFinder
	carts   *cart.Service
	views   *renderer
	log     *zap.Logger
}

type CommandRequestDTO struct {
	Command       string `json:"command"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	ViewportWidth int    `json:"viewport_width"`
	ReturnTo      string `json:"return_to"`
}

type CartResponseDTO struct {
	*domain.Cart
	Count        int  `json:"count"`
	DropdownOpen bool `json:"dropdownOpen"`
}

func (h *CartHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := h.carts.Load(ctx, getSession(ctx))

	if wantsJSON(r) {
		respondJSON(w, h.log, http.StatusOK, CartResponseDTO{Cart: c, Count: c.Count()})
		return
	}

	h.views.page(w, http.StatusOK, "cart", pageData{
		Title:        "Carrito",
		Cart:         c,
		DropdownOpen: dropdownRequested(r),
		Identity:     getIdentity(ctx),
	})
}

func (h *CartHandler) Dropdown(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.views.fragment(w, "dropdown", pageData{
		Cart:         h.carts.Load(ctx, getSession(ctx)),
		DropdownOpen: dropdownRequested(r),
	})
}

// Command applies one cart command. Form posts are redirected back to
// return_to; JSON clients get the updated cart.
func (h *CartHandler) Command(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := getSession(ctx)
	asJSON := wantsJSON(r)

	req, err := decodeCommand(r)
	if err != nil {
		h.fail(w, r, asJSON, http.StatusBadRequest, "invalid_request", "Solicitud inválida.")
		return
	}

	cmd, err := h.resolve(r, session, req)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			h.fail(w, r, asJSON, http.StatusNotFound, "product_not_found", "El producto no existe.")
		case errors.Is(err, cart.ErrUnknownCommand):
			h.fail(w, r, asJSON, http.StatusBadRequest, "unknown_command", "Acción desconocida.")
		case errors.Is(err, cart.ErrInvalidItem):
			h.fail(w, r, asJSON, http.StatusBadRequest, "invalid_item", "Producto inválido.")
		default:
			h.log.Error("failed to resolve cart command", zap.String("command", req.Command), zap.Error(err))
			h.fail(w, r, asJSON, http.StatusInternalServerError, "internal", "No pudimos actualizar el carrito.")
		}
		return
	}

	c, err := h.carts.Dispatch(ctx, session, cmd)
	if err != nil {
		if errors.Is(err, cart.ErrCartUnavailable) {
			h.log.Warn("cart command not applied", zap.String("command", req.Command), zap.Error(err))
			h.fail(w, r, asJSON, http.StatusServiceUnavailable, "cart_unavailable", "No pudimos actualizar el carrito. Intenta de nuevo.")
			return
		}
		h.fail(w, r, asJSON, http.StatusBadRequest, "invalid_item", "Producto inválido.")
		return
	}

	open := cmd.Kind == cart.CommandAdd && req.ViewportWidth > dropdownMinViewport

	if asJSON {
		respondJSON(w, h.log, http.StatusOK, CartResponseDTO{Cart: c, Count: c.Count(), DropdownOpen: open})
		return
	}

	target := safeReturnPath(req.ReturnTo, "/cart")
	if open {
		target = withQuery(target, "cart", "open")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// resolve turns the wire request into a cart command. increment and
// decrement are relative to the quantity currently in the cart.
func (h *CartHandler) resolve(r *http.Request, session string, req CommandRequestDTO) (cart.Command, error) {
	ctx := r.Context()
	id := strings.TrimSpace(req.ProductID)

	switch req.Command {
	case "increment", "decrement":
		cur, ok := h.carts.Load(ctx, session).Find(id)
		if !ok {
			return cart.Command{}, cart.ErrInvalidItem
		}
		qty := cur.Quantity + 1
		if req.Command == "decrement" {
			qty = cur.Quantity - 1
		}
		return cart.Command{Kind: cart.CommandSetQuantity, ItemID: id, Quantity: qty}, nil
	}

	kind, err := cart.ParseCommandKind(req.Command)
	if err != nil {
		return cart.Command{}, err
	}

	cmd := cart.Command{Kind: kind, ItemID: id, Quantity: req.Quantity}
	if kind == cart.CommandAdd {
		if id == "" {
			return cart.Command{}, cart.ErrInvalidItem
		}
		p, err := h.catalog.Product(ctx, id)
		if err != nil {
			return cart.Command{}, err
		}
		if cmd.Quantity < 1 {
			cmd.Quantity = 1
		}
		cmd.Item = p.LineItem(cmd.Quantity)
	}
	return cmd, nil
}

func (h *CartHandler) fail(w http.ResponseWriter, r *http.Request, asJSON bool, status int, code, message string) {
	if asJSON {
		respondError(w, h.log, status, code, message)
		return
	}
	ctx := r.Context()
	h.views.page(w, status, "error", pageData{
		Title:    "Error",
		Cart:     h.carts.Load(ctx, getSession(ctx)),
		Identity: getIdentity(ctx),
		Content:  message,
	})
}

func decodeCommand(r *http.Request) (CommandRequestDTO, error) {
	var req CommandRequestDTO
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Command = r.PostForm.Get("command")
	req.ProductID = r.PostForm.Get("product_id")
	req.ReturnTo = r.PostForm.Get("return_to")
	req.Quantity = atoiOr(r.PostForm.Get("quantity"), 0)
	req.ViewportWidth = atoiOr(r.PostForm.Get("viewport_width"), 0)
	return req, nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func withQuery(path, key, value string) string {
	u, err := url.Parse(path)
	if err != nil {
		return path
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
