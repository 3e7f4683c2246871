package orders

import (
	"time"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/shopspring/decimal"
)

// orderDocument is the stored shape of an order. Field names are shared with
// the back-office, which reads the same collection.
type orderDocument struct {
	ID            string                `bson:"_id"`
	OrderID       string                `bson:"orderId"`
	UserID        string                `bson:"usuarioId,omitempty"`
	Email         string                `bson:"email,omitempty"`
	Status        string                `bson:"estado"`
	PaymentMethod string                `bson:"metodoPago,omitempty"`
	TotalCRC      float64               `bson:"totalCRC"`
	TotalUSD      float64               `bson:"totalUSD"`
	Currency      string                `bson:"monedaPago,omitempty"`
	Items         []itemDocument        `bson:"items"`
	CreatedAt     time.Time             `bson:"fecha"`
	Shipping      *domain.ShippingDraft `bson:"shipping,omitempty"`
}

type itemDocument struct {
	ID            string   `bson:"id"`
	Name          string   `bson:"nombre"`
	Price         float64  `bson:"precio"`
	OriginalPrice *float64 `bson:"precioOriginal,omitempty"`
	Discount      int      `bson:"descuento,omitempty"`
	Category      string   `bson:"categoria,omitempty"`
	Quantity      int      `bson:"cantidad"`
	Image         string   `bson:"imagen,omitempty"`
}

func toDocument(o *domain.Order) orderDocument {
	items := make([]itemDocument, 0, len(o.Items))
	for _, it := range o.Items {
		doc := itemDocument{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.UnitPrice.InexactFloat64(),
			Discount: it.DiscountPercent,
			Category: it.Category,
			Quantity: it.Quantity,
			Image:    it.ImageURL,
		}
		if it.OriginalPrice != nil {
			orig := it.OriginalPrice.InexactFloat64()
			doc.OriginalPrice = &orig
		}
		items = append(items, doc)
	}
	return orderDocument{
		ID:            o.OrderID,
		OrderID:       o.OrderID,
		UserID:        o.UserID,
		Email:         o.Email,
		Status:        o.Status.String(),
		PaymentMethod: string(o.PaymentMethod),
		TotalCRC:      o.TotalLocal.InexactFloat64(),
		TotalUSD:      o.TotalPayment.InexactFloat64(),
		Currency:      o.PaymentCurrency,
		Items:         items,
		CreatedAt:     o.CreatedAt.UTC(),
		Shipping:      o.Shipping,
	}
}

func (d orderDocument) toDomain() *domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		item := domain.OrderItem{
			ID:              it.ID,
			Name:            it.Name,
			UnitPrice:       decimal.NewFromFloat(it.Price),
			DiscountPercent: it.Discount,
			Category:        it.Category,
			Quantity:        it.Quantity,
			ImageURL:        it.Image,
		}
		if it.OriginalPrice != nil {
			orig := decimal.NewFromFloat(*it.OriginalPrice)
			item.OriginalPrice = &orig
		}
		items = append(items, item)
	}
	id := d.OrderID
	if id == "" {
		id = d.ID
	}
	return &domain.Order{
		OrderID:         id,
		UserID:          d.UserID,
		Email:           d.Email,
		Status:          domain.ParseOrderStatus(d.Status),
		PaymentMethod:   domain.PaymentMethod(d.PaymentMethod),
		TotalLocal:      decimal.NewFromFloat(d.TotalCRC),
		TotalPayment:    decimal.NewFromFloat(d.TotalUSD),
		PaymentCurrency: d.Currency,
		Items:           items,
		CreatedAt:       d.CreatedAt,
		Shipping:        d.Shipping,
	}
}
