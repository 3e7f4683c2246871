package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPagoCompletado   OrderStatus = "pago_completado"
	OrderStatusSolicitandoEnvio OrderStatus = "solicitando_envio"
	OrderStatusEnvioHecho       OrderStatus = "envio_hecho"
	OrderStatusCompletado       OrderStatus = "completado"
	OrderStatusCancelado        OrderStatus = "cancelado"

	// legacy value written by older clients
	orderStatusPendiente OrderStatus = "pendiente"
)

// ParseOrderStatus maps a stored status to its canonical value.
// Unknown values are returned unchanged.
func ParseOrderStatus(s string) OrderStatus {
	st := OrderStatus(s)
	if st == orderStatusPendiente {
		return OrderStatusPagoCompletado
	}
	return st
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPagoCompletado, orderStatusPendiente:
		return "Pago completado"
	case OrderStatusSolicitandoEnvio:
		return "Solicitando envío"
	case OrderStatusEnvioHecho:
		return "Envío hecho"
	case OrderStatusCompletado:
		return "Completado"
	case OrderStatusCancelado:
		return "Cancelado"
	default:
		return string(s)
	}
}

// Progress returns which of the three customer-facing steps
// (payment, shipping requested, shipped) are done.
func (s OrderStatus) Progress() [3]bool {
	switch ParseOrderStatus(string(s)) {
	case OrderStatusCancelado:
		return [3]bool{}
	case OrderStatusSolicitandoEnvio:
		return [3]bool{true, true, false}
	case OrderStatusEnvioHecho, OrderStatusCompletado:
		return [3]bool{true, true, true}
	default:
		return [3]bool{true, false, false}
	}
}

// IsSale reports whether the order counts as a sale.
func (s OrderStatus) IsSale() bool {
	return ParseOrderStatus(string(s)) != OrderStatusCancelado
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseOrderStatus(raw)
	return nil
}

// OrderItem is the cart line as it was paid for.
type OrderItem struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	UnitPrice       decimal.Decimal  `json:"unitPrice"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice,omitempty"`
	DiscountPercent int              `json:"discountPercent,omitempty"`
	Category        string           `json:"category,omitempty"`
	Quantity        int              `json:"quantity"`
	ImageURL        string           `json:"imageUrl,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a captured payment. OrderID is the provider's order id.
type Order struct {
	OrderID         string          `json:"orderId"`
	UserID          string          `json:"userId,omitempty"`
	Email           string          `json:"email,omitempty"`
	Status          OrderStatus     `json:"status"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod,omitempty"`
	TotalLocal      decimal.Decimal `json:"totalLocal"`
	TotalPayment    decimal.Decimal `json:"totalPayment"`
	PaymentCurrency string          `json:"paymentCurrency,omitempty"`
	Items           []OrderItem     `json:"items"`
	CreatedAt       time.Time       `json:"createdAt"`
	Shipping        *ShippingDraft  `json:"shipping,omitempty"`
}

// HasContent reports whether the record carries enough data to render a receipt.
func (o *Order) HasContent() bool {
	return !o.TotalLocal.IsZero() || len(o.Items) > 0
}

// OrderItemsFromCart snapshots cart lines into order items.
func OrderItemsFromCart(lines []CartLineItem) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		item := OrderItem{
			ID:              l.ID,
			Name:            l.Name,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			Category:        l.Category,
			Quantity:        l.Quantity,
			ImageURL:        l.ImageURL,
		}
		if l.OriginalPrice != nil {
			orig := *l.OriginalPrice
			item.OriginalPrice = &orig
		}
		items = append(items, item)
	}
	return items
}

// OrderSource records where an order was durably written.
type OrderSource string

const (
	OrderSourceStore         OrderSource = "store"
	OrderSourceLocalFallback OrderSource = "localStorage_fallback"
)

// FallbackRecord is the session-local copy of the last captured order,
// read by the confirmation page.
type FallbackRecord struct {
	Order
	Source  OrderSource `json:"source"`
	Error   string      `json:"error,omitempty"`
	SavedAt time.Time   `json:"savedAt"`
}
