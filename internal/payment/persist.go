package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/orders"
	"github.com/fjod/fyz_store/internal/publisher"
	"github.com/fjod/fyz_store/internal/slots"
	"go.uber.org/zap"
)

const (
	DefaultPersistTimeout = 5 * time.Second
	publishTimeout        = 5 * time.Second
)

type OrderWriter interface {
	Save(ctx context.Context, order *domain.Order) error
}

// Persister records a captured order. The payment has already been taken, so
// persistence never fails outward: when the store is slow or down the order is
// kept in the session fallback slot instead.
type Persister struct {
	orders  OrderWriter
	slots   slots.Store
	carts   *cart.Service
	events  publisher.Publisher
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewPersister(orders OrderWriter, store slots.Store, carts *cart.Service, events publisher.Publisher, timeout time.Duration, log *zap.Logger) *Persister {
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	return &Persister{
		orders:  orders,
		slots:   store,
		carts:   carts,
		events:  events,
		timeout: timeout,
		now:     time.Now,
		log:     log,
	}
}

// Persist writes order to the store, raced against the persist timeout, then
// writes the session fallback and clears the cart and checkout step either way.
func (p *Persister) Persist(ctx context.Context, session string, order *domain.Order) domain.OrderSource {
	p.attachShipping(ctx, session, order)

	source := domain.OrderSourceStore
	var detail string
	if err := p.save(ctx, order); errors.Is(err, orders.ErrOrderExists) {
		p.log.Warn("order already stored, keeping the stored copy", zap.String("order_id", order.OrderID))
	} else if err != nil {
		source = domain.OrderSourceLocalFallback
		detail = err.Error()
		p.log.Error("order store write failed, keeping session fallback",
			zap.String("order_id", order.OrderID), zap.Error(err))
	}

	p.writeFallback(ctx, session, order, source, detail)

	p.carts.Clear(ctx, session)
	if err := p.slots.Delete(ctx, session, slots.CheckoutStep); err != nil {
		p.log.Warn("checkout step clear failed", zap.String("session", session), zap.Error(err))
	}

	p.publish(ctx, order, source)
	return source
}

func (p *Persister) save(ctx context.Context, order *domain.Order) error {
	saveCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- p.orders.Save(saveCtx, order) }()

	select {
	case err := <-errc:
		return err
	case <-saveCtx.Done():
		if errors.Is(saveCtx.Err(), context.DeadlineExceeded) {
			return ErrPersistTimeout
		}
		return saveCtx.Err()
	}
}

func (p *Persister) attachShipping(ctx context.Context, session string, order *domain.Order) {
	data, err := p.slots.Get(ctx, session, slots.Shipping)
	if err != nil {
		if !errors.Is(err, slots.ErrSlotEmpty) {
			p.log.Warn("shipping slot read failed", zap.String("session", session), zap.Error(err))
		}
		return
	}
	var draft domain.ShippingDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		p.log.Warn("shipping slot unreadable", zap.String("session", session), zap.Error(err))
		return
	}
	order.Shipping = &draft
	if order.Email == "" {
		order.Email = draft.Email
	}
}

func (p *Persister) writeFallback(ctx context.Context, session string, order *domain.Order, source domain.OrderSource, detail string) {
	rec := domain.FallbackRecord{
		Order:   *order,
		Source:  source,
		Error:   detail,
		SavedAt: p.now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		p.log.Error("fallback marshal failed", zap.String("order_id", order.OrderID), zap.Error(err))
		return
	}
	for _, slot := range []string{slots.Confirmation, slots.Order(order.OrderID)} {
		if err := p.slots.Set(ctx, session, slot, data); err != nil {
			p.log.Error("fallback write failed", zap.String("slot", slot), zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
}

func (p *Persister) publish(ctx context.Context, order *domain.Order, source domain.OrderSource) {
	snapshot := *order
	go func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := p.events.OrderCaptured(pubCtx, &snapshot, source); err != nil {
			p.log.Warn("order event publish failed", zap.String("order_id", snapshot.OrderID), zap.Error(err))
		}
	}()
}
