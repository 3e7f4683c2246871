package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/checkout"
	"github.com/fjod/fyz_store/internal/confirmation"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ProductFinder interface {
	Product(ctx context.Context, id string) (*domain.Product, error)
	Products(ctx context.Context) ([]*domain.Product, error)
}

type OrderLister interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.Order, error)
}

// Payments is the part of the payment adapter the provider callbacks talk to.
type Payments interface {
	CreateOrder(ctx context.Context, session string, method domain.PaymentMethod) (*payment.ProviderOrder, error)
	Approve(ctx context.Context, session string, who domain.Identity, method domain.PaymentMethod, providerOrderID string) payment.CaptureResult
	Cancel(session string) payment.CaptureResult
	Fail(session, reason string) payment.CaptureResult
	RedirectDelay() time.Duration
}

type Services struct {
	Catalog      ProductFinder
	Carts        *cart.Service
	Checkout     *checkout.Orchestrator
	Payments     Payments
	Confirmation *confirmation.Reader
	Orders       OrderLister
}

type Options struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SessionTTL         time.Duration
	SecureCookies      bool
	StripeKey          string
	// EmptyCartRedirect is how long the empty-checkout notice stays before going back to the cart.
	EmptyCartRedirect time.Duration
}

func (o *Options) withDefaults() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.MaxRequestBodySize <= 0 {
		o.MaxRequestBodySize = 1 << 20 // 1MB
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 30 * 24 * time.Hour
	}
	if o.EmptyCartRedirect <= 0 {
		o.EmptyCartRedirect = 2 * time.Second
	}
}

func NewRouter(svc Services, opts Options, log *zap.Logger) (http.Handler, error) {
	opts.withDefaults()

	views, err := newRenderer(log)
	if err != nil {
		return nil, err
	}

	store := &StoreHandler{catalog: svc.Catalog, carts: svc.Carts, orders: svc.Orders, views: views, log: log}
	carts := &CartHandler{catalog: svc.Catalog, carts: svc.Carts, views: views, log: log}
	co := &CheckoutHandler{
		checkout:   svc.Checkout,
		carts:      svc.Carts,
		views:      views,
		stripeKey:  opts.StripeKey,
		emptyDelay: opts.EmptyCartRedirect,
		log:        log,
	}
	pay := &PaymentHandler{payments: svc.Payments, log: log}
	conf := &ConfirmationHandler{reader: svc.Confirmation, carts: svc.Carts, views: views, log: log}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.RequestSize(opts.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(opts.SessionTTL, opts.SecureCookies))
		r.Use(IdentityMiddleware)

		r.Get("/", store.Home)
		r.Get("/pedidos", store.Orders)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", carts.Page)
			r.Get("/dropdown", carts.Dropdown)
			r.Post("/commands", carts.Command)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", co.Start)
			r.Post("/shipping", co.SubmitShipping)
			r.Post("/back", co.Back)
			r.Post("/method", co.SelectMethod)
		})

		r.Route("/api/payments/{method}", func(r chi.Router) {
			r.Post("/orders", pay.CreateOrder)
			r.Post("/orders/{orderID}/capture", pay.Capture)
			r.Post("/cancel", pay.Cancel)
			r.Post("/error", pay.Error)
		})

		r.Get("/confirmacion", conf.Show)
	})

	return r, nil
}
