package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const lockStripes = 64

// Service owns every session's cart. Each operation loads the session slot,
// applies the change, persists and returns the recomputed cart.
type Service struct {
	slots slots.Store
	log   *zap.Logger
	locks [lockStripes]sync.Mutex
}

func NewService(store slots.Store, log *zap.Logger) *Service {
	return &Service{
		slots: store,
		log:   log,
	}
}

// Load returns the session cart. It never fails: unreadable data yields an
// empty cart. When the store cannot be read the slot is left as it is.
func (s *Service) Load(ctx context.Context, session string) *domain.Cart {
	mu := s.lock(session)
	mu.Lock()
	defer mu.Unlock()

	items, found, err := s.load(ctx, session)
	if err == nil && found {
		s.persist(ctx, session, items)
	}
	return Recompute(items)
}

func (s *Service) Add(ctx context.Context, session string, item domain.CartLineItem, quantity int) (*domain.Cart, error) {
	if strings.TrimSpace(item.ID) == "" {
		return nil, ErrInvalidItem
	}
	quantity = domain.ClampQuantity(quantity)

	return s.mutate(ctx, session, func(items []domain.CartLineItem) []domain.CartLineItem {
		item = normalizeItem(item)
		for i := range items {
			if items[i].ID == item.ID {
				items[i].Quantity = addQuantity(items[i].Quantity, quantity)
				return items
			}
		}
		item.Quantity = quantity
		return append(items, item)
	})
}

func (s *Service) Remove(ctx context.Context, session, id string) (*domain.Cart, error) {
	return s.mutate(ctx, session, func(items []domain.CartLineItem) []domain.CartLineItem {
		return removeID(items, id)
	})
}

// SetQuantity replaces the quantity of id. Quantities below one remove the line,
// quantities above MaxQuantity are clamped and an unknown id is a no-op.
func (s *Service) SetQuantity(ctx context.Context, session, id string, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, session, func(items []domain.CartLineItem) []domain.CartLineItem {
		if quantity < 1 {
			return removeID(items, id)
		}
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity = domain.ClampQuantity(quantity)
			}
		}
		return items
	})
}

// Clear empties the cart without reading it first.
func (s *Service) Clear(ctx context.Context, session string) *domain.Cart {
	mu := s.lock(session)
	mu.Lock()
	defer mu.Unlock()

	s.persist(ctx, session, nil)
	return Recompute(nil)
}

func (s *Service) Dispatch(ctx context.Context, session string, cmd Command) (*domain.Cart, error) {
	switch cmd.Kind {
	case CommandAdd:
		return s.Add(ctx, session, cmd.Item, cmd.Quantity)
	case CommandRemove:
		return s.Remove(ctx, session, cmd.ItemID)
	case CommandSetQuantity:
		return s.SetQuantity(ctx, session, cmd.ItemID, cmd.Quantity)
	case CommandClear:
		return s.Clear(ctx, session), nil
	default:
		return nil, ErrUnknownCommand
	}
}

// Recompute derives the cart totals from its lines. Shipping is free, so total equals subtotal.
func Recompute(items []domain.CartLineItem) *domain.Cart {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return &domain.Cart{
		Items:    items,
		Subtotal: subtotal,
		Total:    subtotal,
	}
}

// mutate applies fn to the stored cart and writes the result back. A failed
// read aborts the change so the stored cart is never replaced by a partial one.
func (s *Service) mutate(ctx context.Context, session string, fn func([]domain.CartLineItem) []domain.CartLineItem) (*domain.Cart, error) {
	mu := s.lock(session)
	mu.Lock()
	defer mu.Unlock()

	items, _, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	items = fn(items)
	s.persist(ctx, session, items)
	return Recompute(items), nil
}

// load reads and normalizes the stored cart. found is false when there was
// nothing to read. Missing and corrupt data are not errors; a store failure is.
func (s *Service) load(ctx context.Context, session string) (items []domain.CartLineItem, found bool, err error) {
	data, err := s.slots.Get(ctx, session, slots.Cart)
	if errors.Is(err, slots.ErrSlotEmpty) {
		return nil, false, nil
	}
	if err != nil {
		s.log.Warn("cart slot read failed", zap.String("session", session), zap.Error(err))
		return nil, false, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	items, err = decodeItems(data)
	if err != nil {
		s.log.Warn("discarding unreadable cart", zap.String("session", session), zap.Error(err))
		return nil, true, nil
	}
	return items, true, nil
}

func (s *Service) persist(ctx context.Context, session string, items []domain.CartLineItem) {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.log.Error("cart marshal failed", zap.String("session", session), zap.Error(err))
		return
	}
	if err := s.slots.Set(ctx, session, slots.Cart, data); err != nil {
		s.log.Warn("cart slot write failed", zap.String("session", session), zap.Error(err))
	}
}

func (s *Service) lock(session string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(session))
	return &s.locks[h.Sum32()%lockStripes]
}

// addQuantity merges two line quantities without leaving [1, MaxQuantity].
func addQuantity(cur, more int) int {
	cur = domain.ClampQuantity(cur)
	more = domain.ClampQuantity(more)
	return domain.ClampQuantity(cur + more)
}

func removeID(items []domain.CartLineItem, id string) []domain.CartLineItem {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
