package slots

import (
	"context"
	"errors"
)

// Slot names. They match the keys the storefront has always used so that
// records written by older clients keep loading.
const (
	Cart         = "fyz_carrito"
	Shipping     = "fyz_checkout_shipping"
	CheckoutStep = "fyz_checkout_step"
	Confirmation = "fyz_confirmacion_pago"

	orderPrefix   = "fyz_pedido_"
	pendingPrefix = "fyz_pago_pendiente_"
)

// Order is the per-order fallback slot.
func Order(orderID string) string {
	return orderPrefix + orderID
}

// Pending holds what was priced for a provider order until it is captured.
func Pending(providerOrderID string) string {
	return pendingPrefix + providerOrderID
}

var ErrSlotEmpty = errors.New("slot is empty")

// Store keeps small JSON documents per browser session.
type Store interface {
	Get(ctx context.Context, session, slot string) ([]byte, error)
	Set(ctx context.Context, session, slot string, value []byte) error
	Delete(ctx context.Context, session string, slots ...string) error
}
