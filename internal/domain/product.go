package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Price is the final (discounted) price in the local currency.
type Product struct {
	ID              string
	Name            string
	Description     string
	Price           decimal.Decimal
	OriginalPrice   *decimal.Decimal
	DiscountPercent int
	ImageURL        string
	Category        string
	CreatedAt       time.Time
}

// LineItem converts the product into a cart line with the given quantity.
func (p *Product) LineItem(quantity int) CartLineItem {
	return CartLineItem{
		ID:              p.ID,
		Name:            p.Name,
		UnitPrice:       p.Price,
		OriginalPrice:   p.OriginalPrice,
		DiscountPercent: p.DiscountPercent,
		ImageURL:        p.ImageURL,
		Category:        p.Category,
		Quantity:        quantity,
	}
}
