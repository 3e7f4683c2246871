package cart

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fjod/fyz_store/internal/domain"
	"github.com/shopspring/decimal"
)

// storedItem mirrors CartLineItem but accepts whatever older clients wrote:
// numbers as strings, ids as numbers, missing fields.
type storedItem struct {
	ID              json.RawMessage `json:"id"`
	Name            json.RawMessage `json:"name"`
	UnitPrice       json.RawMessage `json:"unitPrice"`
	OriginalPrice   json.RawMessage `json:"originalPrice"`
	DiscountPercent json.RawMessage `json:"discountPercent"`
	ImageURL        json.RawMessage `json:"imageUrl"`
	Category        json.RawMessage `json:"category"`
	Quantity        json.RawMessage `json:"quantity"`
}

// decodeItems parses a stored cart. Elements that are not objects are dropped;
// a payload that is not a JSON array is reported as an error.
func decodeItems(data []byte) ([]domain.CartLineItem, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}

	items := make([]domain.CartLineItem, 0, len(raws))
	for _, raw := range raws {
		var s storedItem
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		item, ok := s.toLineItem()
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return mergeByID(items), nil
}

func (s storedItem) toLineItem() (domain.CartLineItem, bool) {
	item := domain.CartLineItem{
		ID:       strings.TrimSpace(coerceString(s.ID)),
		Name:     coerceString(s.Name),
		ImageURL: coerceString(s.ImageURL),
		Category: coerceString(s.Category),
	}
	if item.ID == "" {
		return item, false
	}

	item.UnitPrice, _ = coerceDecimal(s.UnitPrice)
	if orig, ok := coerceDecimal(s.OriginalPrice); ok {
		item.OriginalPrice = &orig
	}
	if d, ok := coerceDecimal(s.DiscountPercent); ok && !d.IsNegative() && d.LessThanOrEqual(maxDiscount) {
		item.DiscountPercent = int(d.IntPart())
	}
	if q, ok := coerceDecimal(s.Quantity); ok {
		item.Quantity = quantityFrom(q)
	}

	return normalizeItem(item), true
}

var (
	maxDiscount = decimal.NewFromInt(100)
	maxQuantity = decimal.NewFromInt(domain.MaxQuantity)
)

// quantityFrom converts a stored quantity. The bounds are checked on the
// decimal so huge values clamp instead of wrapping through int64.
func quantityFrom(q decimal.Decimal) int {
	if q.GreaterThan(maxQuantity) {
		return domain.MaxQuantity
	}
	if q.LessThan(decimal.NewFromInt(1)) {
		return 1
	}
	return int(q.IntPart())
}

// normalizeItem enforces the line item invariants and fills defaults.
func normalizeItem(item domain.CartLineItem) domain.CartLineItem {
	item.ID = strings.TrimSpace(item.ID)
	if item.Name == "" {
		item.Name = domain.DefaultItemName
	}
	if item.ImageURL == "" {
		item.ImageURL = domain.DefaultItemImage
	}
	if item.Category == "" {
		item.Category = domain.DefaultItemCategory
	}
	if item.UnitPrice.IsNegative() {
		item.UnitPrice = decimal.Zero
	}
	if item.OriginalPrice != nil && !item.OriginalPrice.IsPositive() {
		item.OriginalPrice = nil
	}
	if item.DiscountPercent < 0 || item.DiscountPercent > 100 {
		item.DiscountPercent = 0
	}
	item.Quantity = domain.ClampQuantity(item.Quantity)
	return item
}

// mergeByID collapses duplicate ids, summing their quantities up to MaxQuantity.
// First occurrence wins otherwise.
func mergeByID(items []domain.CartLineItem) []domain.CartLineItem {
	out := make([]domain.CartLineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := index[it.ID]; ok {
			out[i].Quantity = addQuantity(out[i].Quantity, it.Quantity)
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

func coerceString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func coerceDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	s := strings.TrimSpace(coerceString(raw))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
