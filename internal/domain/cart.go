package domain

import "github.com/shopspring/decimal"

const (
	DefaultItemName     = "Producto"
	DefaultItemImage    = "https://via.placeholder.com/150"
	DefaultItemCategory = "general"

	// MaxQuantity caps a single line. Larger requests are clamped, never wrapped.
	MaxQuantity = 999
)

// ClampQuantity bounds q to [1, MaxQuantity].
func ClampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

type CartLineItem struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	UnitPrice       decimal.Decimal  `json:"unitPrice"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice"`
	DiscountPercent int              `json:"discountPercent"`
	ImageURL        string           `json:"imageUrl"`
	Category        string           `json:"category"`
	Quantity        int              `json:"quantity"`
}

// LineTotal is unitPrice × quantity.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HasMarkdown reports whether a struck-through original price should be shown.
func (i CartLineItem) HasMarkdown() bool {
	return i.OriginalPrice != nil && i.OriginalPrice.GreaterThan(i.UnitPrice)
}

// Cart is the derived view of a session's line items.
type Cart struct {
	Items    []CartLineItem  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Find(id string) (CartLineItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartLineItem{}, false
}
