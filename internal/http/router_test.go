package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/checkout"
	"github.com/fjod/fyz_store/internal/confirmation"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/payment"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSession = "6f1c2a52-5d0b-4c1e-9a59-2a7c3e0f9b11"

type fixture struct {
	handler  http.Handler
	store    slots.Store
	carts    *cart.Service
	orders   *OrdersMock
	payments *PaymentsMock
}

func oudRoyal() *domain.Product {
	orig := decimal.NewFromInt(30000)
	return &domain.Product{
		ID:              "oud-royal",
		Name:            "Oud Royal",
		Price:           decimal.NewFromInt(26000),
		OriginalPrice:   &orig,
		DiscountPercent: 13,
		ImageURL:        "/img/oud.jpg",
		Category:        "oriental",
	}
}

func newFixture(t *testing.T, products ...*domain.Product) *fixture {
	t.Helper()
	return newFixtureWithStore(t, slots.NewMemoryStore(), products...)
}

func newFixtureWithStore(t *testing.T, store slots.Store, products ...*domain.Product) *fixture {
	t.Helper()
	log := zap.NewNop()
	carts := cart.NewService(store, log)
	ordersMock := newOrdersMock()
	payments := &PaymentsMock{}

	if len(products) == 0 {
		products = []*domain.Product{oudRoyal()}
	}

	h, err := NewRouter(Services{
		Catalog:      newCatalogMock(products...),
		Carts:        carts,
		Checkout:     checkout.NewOrchestrator(store, carts, ButtonsMock{}, log),
		Payments:     payments,
		Confirmation: confirmation.NewReader(store, ordersMock, carts, log),
		Orders:       ordersMock,
	}, Options{RequestTimeout: 5 * time.Second}, log)
	require.NoError(t, err)

	return &fixture{handler: h, store: store, carts: carts, orders: ordersMock, payments: payments}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: testSession})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func (f *fixture) addToCart(t *testing.T, p *domain.Product, qty int) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), testSession, p.LineItem(qty), qty)
	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSession_CookieIssuedOnFirstVisit(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestCartCommand_AddOpensDropdownOnWideViewport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/cart/commands", url.Values{
		"command":        {"add"},
		"product_id":     {"oud-royal"},
		"quantity":       {"1"},
		"viewport_width": {"1280"},
		"return_to":      {"/"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?cart=open", rec.Header().Get("Location"))

	c := f.carts.Load(context.Background(), testSession)
	assert.Equal(t, 1, c.Count())
	assert.True(t, c.Total.Equal(decimal.NewFromInt(26000)))
}

func TestCartCommand_AddKeepsDropdownClosedOnNarrowViewport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/cart/commands", url.Values{
		"command":        {"add"},
		"product_id":     {"oud-royal"},
		"viewport_width": {"768"},
		"return_to":      {"/"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestCartCommand_RejectsOffsiteReturn(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 1)

	rec := f.do(postForm("/cart/commands", url.Values{
		"command":    {"remove"},
		"product_id": {"oud-royal"},
		"return_to":  {"//evil.example.com/"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
	assert.True(t, f.carts.Load(context.Background(), testSession).IsEmpty())
}

func TestCartCommand_IncrementAndDecrement(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 1)

	f.do(postForm("/cart/commands", url.Values{"command": {"increment"}, "product_id": {"oud-royal"}}))
	c := f.carts.Load(context.Background(), testSession)
	item, ok := c.Find("oud-royal")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)

	f.do(postForm("/cart/commands", url.Values{"command": {"decrement"}, "product_id": {"oud-royal"}}))
	f.do(postForm("/cart/commands", url.Values{"command": {"decrement"}, "product_id": {"oud-royal"}}))
	assert.True(t, f.carts.Load(context.Background(), testSession).IsEmpty())
}

func TestCartCommand_JSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postJSON("/cart/commands", `{"command":"add","product_id":"oud-royal","quantity":2,"viewport_width":1024}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count        int  `json:"count"`
		DropdownOpen bool `json:"dropdownOpen"`
		Items        []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.DropdownOpen)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "oud-royal", resp.Items[0].ID)
}

func TestCartCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown product", `{"command":"add","product_id":"nope"}`, http.StatusNotFound, "product_not_found"},
		{"unknown command", `{"command":"explode","product_id":"oud-royal"}`, http.StatusBadRequest, "unknown_command"},
		{"increment missing line", `{"command":"increment","product_id":"oud-royal"}`, http.StatusBadRequest, "invalid_item"},
		{"malformed body", `{"command":`, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(postJSON("/cart/commands", tt.body))

			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestCartCommand_UnreadableCartIsNotOverwritten(t *testing.T) {
	store := &UnreadableStore{MemoryStore: slots.NewMemoryStore()}
	f := newFixtureWithStore(t, store)
	f.addToCart(t, oudRoyal(), 2)

	store.down.Store(true)
	rec := f.do(postJSON("/cart/commands", `{"command":"add","product_id":"oud-royal","quantity":1}`))
	store.down.Store(false)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cart_unavailable", resp.Code)

	c := f.carts.Load(context.Background(), testSession)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestCartPage_EscapesItemText(t *testing.T) {
	evil := &domain.Product{ID: "x1", Name: `<b>&"'`, Price: decimal.NewFromInt(1000), Category: "<script>"}
	f := newFixture(t, evil)
	f.addToCart(t, evil, 1)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "&lt;b&gt;&amp;&#34;&#39;")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, `<b>&"'`)
	assert.NotContains(t, body, "<small><script>")
}

func TestCartPage_ShowsMarkdownAndTotals(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 2)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "price-original")
	assert.Contains(t, body, "-13%")
	assert.Contains(t, body, "Gratis")
	assert.Contains(t, body, `href="/checkout"`)
}

func TestCartPage_Empty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tu carrito está vacío")
}

func TestDropdown_OpenFlag(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 3)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/cart/dropdown?cart=open", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cart-dropdown active")
	assert.Contains(t, body, `<span class="cart-count">3</span>`)
	assert.NotContains(t, body, "<html")
}

func TestCheckout_EmptyCartRedirectsToCart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/checkout", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2; url=/cart", rec.Header().Get("Refresh"))
	assert.Contains(t, rec.Body.String(), "Tu carrito está vacío")
}

func TestCheckout_ShippingValidation(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 1)

	rec := f.do(postForm("/checkout/shipping", url.Values{"firstName": {"Ana"}}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Por favor, completa todos los campos requeridos.")
	assert.Contains(t, body, `value="Ana"`)
}

func TestCheckout_ShippingThenPayment(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 1)

	rec := f.do(postForm("/checkout/shipping", url.Values{
		"firstName": {"Ana"},
		"lastName":  {"Mora"},
		"email":     {"ana@example.com"},
		"phone":     {"8888-1234"},
		"address":   {"Calle 1"},
		"city":      {"San José"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(postForm("/checkout/method", url.Values{"method": {"paypal"}}))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="paypal-button-container"`)
	assert.Contains(t, body, "/api/payments/paypal/orders")
	assert.Contains(t, body, "res.banner")
	assert.NotContains(t, body, "res.outcome === 'captured'")

	rec = f.do(postForm("/checkout/back", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Mora"`)
}

func TestCheckout_UnknownMethod(t *testing.T) {
	f := newFixture(t)
	f.addToCart(t, oudRoyal(), 1)

	rec := f.do(postForm("/checkout/method", url.Values{"method": {"bitcoin"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayments_CreateOrder(t *testing.T) {
	f := newFixture(t)
	f.payments.order = &payment.ProviderOrder{ID: "PP-123"}

	rec := f.do(postJSON("/api/payments/paypal/orders", ""))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"PP-123"}`, rec.Body.String())
}

func TestPayments_CreateOrderErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"empty cart", payment.ErrEmptyCart, http.StatusConflict},
		{"invalid amount", payment.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{"provider down", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.payments.createErr = tt.err

			rec := f.do(postJSON("/api/payments/paypal/orders", ""))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPayments_UnknownMethod(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postJSON("/api/payments/bitcoin/orders", ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayments_CaptureSuccess(t *testing.T) {
	f := newFixture(t)
	res := payment.Captured("PP-123", decimal.NewFromInt(50), "USD")
	res.RedirectURL = "/confirmacion?id=PP-123"
	f.payments.result = res

	rec := f.do(postJSON("/api/payments/paypal/orders/PP-123/capture", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "captured", resp["outcome"])
	assert.Equal(t, "/confirmacion?id=PP-123", resp["redirectUrl"])
	assert.Equal(t, float64(1500), resp["redirectDelayMs"])
	assert.Equal(t, "¡Pago completado! Redirigiendo...", resp["message"])
	assert.Equal(t, "success", resp["banner"])
	assert.Equal(t, []string{"PP-123"}, f.payments.approved)
}

func TestPayments_CaptureFailure(t *testing.T) {
	f := newFixture(t)
	f.payments.result = payment.Failed("payment not completed")

	rec := f.do(postJSON("/api/payments/paypal/orders/PP-9/capture", ""))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp["outcome"])
	assert.Equal(t, "error", resp["banner"])
	assert.NotContains(t, resp, "redirectDelayMs")
}

func TestPayments_CancelAndError(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postJSON("/api/payments/paypal/cancel", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"cancelled"`)
	assert.Contains(t, rec.Body.String(), `"banner":"warning"`)

	rec = f.do(postJSON("/api/payments/card/error", `{"reason":"card declined"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"failed"`)
	assert.Contains(t, rec.Body.String(), `"banner":"error"`)
	assert.Equal(t, []string{"card declined"}, f.payments.failures)
}

func TestConfirmation_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/confirmacion?id=missing", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "No encontramos tu pedido")
	assert.Contains(t, body, "#missing")
}

func TestConfirmation_FromFallbackCleansUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addToCart(t, oudRoyal(), 1)

	rec := domain.FallbackRecord{
		Order: domain.Order{
			OrderID:    "PP-777",
			Status:     domain.OrderStatusSolicitandoEnvio,
			TotalLocal: decimal.NewFromInt(26000),
			Items:      []domain.OrderItem{{ID: "oud-royal", Name: "Oud Royal", UnitPrice: decimal.NewFromInt(26000), Quantity: 1}},
		},
		Source: domain.OrderSourceLocalFallback,
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, testSession, slots.Confirmation, data))

	resp := f.do(httptest.NewRequest(http.MethodGet, "/confirmacion?pedido=PP-777", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "#PP-777")
	assert.Contains(t, body, "Estamos terminando de registrar tu pedido")

	assert.True(t, f.carts.Load(ctx, testSession).IsEmpty())
	_, err = f.store.Get(ctx, testSession, slots.Confirmation)
	assert.ErrorIs(t, err, slots.ErrSlotEmpty)
}

func TestOrders_AnonymousAndSignedIn(t *testing.T) {
	f := newFixture(t)
	f.orders.orders["PP-1"] = &domain.Order{
		OrderID:    "PP-1",
		UserID:     "u-1",
		Status:     domain.OrderStatusEnvioHecho,
		TotalLocal: decimal.NewFromInt(26000),
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/pedidos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Inicia sesión")

	req := httptest.NewRequest(http.MethodGet, "/pedidos", nil)
	req.Header.Set("X-User-ID", "u-1")
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "#PP-1")
	assert.Contains(t, body, "01/03/2026")
}

func TestHome_ListsProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oud Royal")
}
