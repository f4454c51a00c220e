package cart

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount is the per-item price reduction captured when the item was added.
// Percentage takes precedence over Amount when both are set.
type Discount struct {
	Percentage float64 `json:"percentage"`
	Amount     int64   `json:"amount"`
}

// LineItem is one cart entry. Prices are integer minor currency units.
type LineItem struct {
	ProductID  int64    `json:"id"`
	Name       string   `json:"name"`
	UnitPrice  int64    `json:"unit_price"`
	Attributes []string `json:"attributes"`
	Discount   Discount `json:"discount"`
	Quantity   int      `json:"quantity"`
}

// Key identifies a line item: the product plus its ordered variant attributes.
type Key struct {
	ProductID  int64    `json:"product_id"`
	Attributes []string `json:"attributes"`
}

// Key returns the identity of the line item.
func (i LineItem) Key() Key {
	return Key{ProductID: i.ProductID, Attributes: i.Attributes}
}

// Equal reports whether both keys name the same cart entry.
// A nil and an empty attribute list are the same.
func (k Key) Equal(other Key) bool {
	if k.ProductID != other.ProductID || len(k.Attributes) != len(other.Attributes) {
		return false
	}
	for i := range k.Attributes {
		if k.Attributes[i] != other.Attributes[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	if len(k.Attributes) == 0 {
		return strconv.FormatInt(k.ProductID, 10)
	}
	return strconv.FormatInt(k.ProductID, 10) + "[" + strings.Join(k.Attributes, ",") + "]"
}

// EffectivePrice is the per-unit price after the item's own discount,
// rounded half away from zero and kept within [0, UnitPrice].
func EffectivePrice(item LineItem) int64 {
	var price int64
	switch d := item.Discount; {
	case d.Percentage > 0:
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(d.Percentage).Div(hundred))
		price = decimal.NewFromInt(item.UnitPrice).Mul(factor).Round(0).IntPart()
	case d.Amount > 0:
		price = item.UnitPrice - d.Amount
	default:
		return item.UnitPrice
	}
	if price < 0 {
		return 0
	}
	if price > item.UnitPrice {
		return item.UnitPrice
	}
	return price
}

// Subtotal is UnitPrice * Quantity.
func (i LineItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// AdjustedSubtotal is EffectivePrice * Quantity.
func (i LineItem) AdjustedSubtotal() int64 {
	return EffectivePrice(i) * int64(i.Quantity)
}

func (i LineItem) clone() LineItem {
	if i.Attributes != nil {
		attrs := make([]string, len(i.Attributes))
		copy(attrs, i.Attributes)
		i.Attributes = attrs
	}
	return i
}
