package confirmation

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/slots"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const lookupTimeout = 5 * time.Second

// queryKeys are the URL parameters an order id may arrive in, in priority order.
var queryKeys = []string{"id", "pedido", "pedidoId", "orderId"}

func OrderIDFromQuery(q url.Values) string {
	for _, k := range queryKeys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

type OrderReader interface {
	Get(ctx context.Context, orderID string) (*domain.Order, error)
}

type Source string

const (
	SourceNone  Source = "none"
	SourceLocal Source = "local"
	SourceStore Source = "store"
)

type View struct {
	OrderID string
	Order   *domain.Order
	Source  Source
	// Unconfirmed is set when the order only exists in the session fallback
	// because the store write failed.
	Unconfirmed bool
}

func (v *View) Found() bool {
	return v.Order != nil
}

type Reader struct {
	slots  slots.Store
	orders OrderReader
	carts  *cart.Service
	sfg    singleflight.Group
	log    *zap.Logger
}

func NewReader(store slots.Store, orders OrderReader, carts *cart.Service, log *zap.Logger) *Reader {
	return &Reader{
		slots:  store,
		orders: orders,
		carts:  carts,
		log:    log,
	}
}

// Read resolves the order to confirm. The session fallback is preferred; the
// document store is consulted only when the fallback has nothing to show.
func (r *Reader) Read(ctx context.Context, session, orderID string) *View {
	rec := r.readRecord(ctx, session, slots.Confirmation)
	if orderID == "" && rec != nil {
		orderID = rec.OrderID
	}

	if rec != nil && rec.HasContent() && (orderID == "" || rec.OrderID == orderID) {
		return localView(rec)
	}
	if orderID == "" {
		return &View{Source: SourceNone}
	}

	if byID := r.readRecord(ctx, session, slots.Order(orderID)); byID != nil && byID.HasContent() {
		return localView(byID)
	}

	order, err := r.fetch(ctx, orderID)
	if err != nil {
		return &View{OrderID: orderID, Source: SourceNone}
	}
	return &View{OrderID: orderID, Order: order, Source: SourceStore}
}

// Cleanup clears the fallback and the rest of the finished checkout once the confirmation has been shown.
func (r *Reader) Cleanup(ctx context.Context, session string) {
	r.carts.Clear(ctx, session)
	if err := r.slots.Delete(ctx, session, slots.Confirmation, slots.CheckoutStep, slots.Shipping); err != nil {
		r.log.Warn("confirmation cleanup failed", zap.String("session", session), zap.Error(err))
	}
}

func (r *Reader) fetch(ctx context.Context, orderID string) (*domain.Order, error) {
	v, err, _ := r.sfg.Do(orderID, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return r.orders.Get(lookupCtx, orderID)
	})
	if err != nil {
		r.log.Info("order lookup failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return v.(*domain.Order), nil
}

func (r *Reader) readRecord(ctx context.Context, session, slot string) *domain.FallbackRecord {
	data, err := r.slots.Get(ctx, session, slot)
	if err != nil {
		if !errors.Is(err, slots.ErrSlotEmpty) {
			r.log.Warn("fallback read failed", zap.String("slot", slot), zap.Error(err))
		}
		return nil
	}
	var rec domain.FallbackRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.log.Warn("fallback unreadable", zap.String("slot", slot), zap.Error(err))
		return nil
	}
	return &rec
}

func localView(rec *domain.FallbackRecord) *View {
	order := rec.Order
	return &View{
		OrderID:     order.OrderID,
		Order:       &order,
		Source:      SourceLocal,
		Unconfirmed: rec.Source == domain.OrderSourceLocalFallback,
	}
}
