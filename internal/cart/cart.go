// Package cart keeps a shopper's line items and their gross and
// discount-adjusted totals.
//
// A Cart is mutated only through its methods and is not safe for concurrent
// use; callers that share a cart across requests serialize access themselves.
package cart

// State is the macro state of a cart.
type State string

const (
	Empty    State = "empty"
	NonEmpty State = "non_empty"
)

// Cart holds line items in insertion order plus running totals.
type Cart struct {
	Items              []LineItem `json:"items"`
	TotalQuantities    int        `json:"total_quantities"`
	TotalPrice         int64      `json:"total_price"`
	AdjustedTotalPrice int64      `json:"adjusted_total_price"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{Items: []LineItem{}}
}

// AddItem appends item, or merges its quantity into the line with the same
// key. On a merge the existing line keeps its name, price and discount, and
// the added units are priced on those terms.
func (c *Cart) AddItem(item LineItem) error {
	if item.ProductID <= 0 {
		return &InvalidItemError{ProductID: item.ProductID, Quantity: item.Quantity, Reason: "product id is required"}
	}
	if item.Quantity < 1 {
		return &InvalidItemError{ProductID: item.ProductID, Quantity: item.Quantity, Reason: "quantity must be at least 1"}
	}

	added := item
	if idx := c.indexOf(item.Key()); idx >= 0 {
		added = c.Items[idx]
		added.Quantity = item.Quantity
		c.Items[idx].Quantity += item.Quantity
	} else {
		c.Items = append(c.Items, item.clone())
	}

	c.TotalQuantities += added.Quantity
	c.TotalPrice += added.Subtotal()
	c.AdjustedTotalPrice += added.AdjustedSubtotal()
	return nil
}

// DecrementItem takes one unit off the matching line, dropping the line when
// it reaches zero. Missing keys are ignored.
func (c *Cart) DecrementItem(key Key) {
	idx := c.indexOf(key)
	if idx < 0 {
		return
	}
	item := c.Items[idx]

	c.TotalQuantities--
	c.TotalPrice -= item.UnitPrice
	c.AdjustedTotalPrice -= EffectivePrice(item)

	if item.Quantity-1 <= 0 {
		c.drop(idx)
		return
	}
	c.Items[idx].Quantity--
}

// RemoveItem drops the matching line entirely. Missing keys are ignored.
func (c *Cart) RemoveItem(key Key) {
	idx := c.indexOf(key)
	if idx < 0 {
		return
	}
	item := c.Items[idx]

	c.TotalQuantities -= item.Quantity
	c.TotalPrice -= item.Subtotal()
	c.AdjustedTotalPrice -= item.AdjustedSubtotal()
	c.drop(idx)
}

// SetQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes the line. Missing keys are ignored.
func (c *Cart) SetQuantity(key Key, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(key)
		return
	}
	idx := c.indexOf(key)
	if idx < 0 {
		return
	}
	item := c.Items[idx]
	delta := quantity - item.Quantity

	c.Items[idx].Quantity = quantity
	c.TotalQuantities += delta
	c.TotalPrice += item.UnitPrice * int64(delta)
	c.AdjustedTotalPrice += EffectivePrice(item) * int64(delta)
}

// Clear resets the cart to empty.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
	c.TotalQuantities = 0
	c.TotalPrice = 0
	c.AdjustedTotalPrice = 0
}

// Find returns a copy of the line with the given key.
func (c *Cart) Find(key Key) (LineItem, bool) {
	idx := c.indexOf(key)
	if idx < 0 {
		return LineItem{}, false
	}
	return c.Items[idx].clone(), true
}

func (c *Cart) Len() int {
	return len(c.Items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) State() State {
	if c.IsEmpty() {
		return Empty
	}
	return NonEmpty
}

// Discount is the total saved by line discounts.
func (c *Cart) Discount() int64 {
	return c.TotalPrice - c.AdjustedTotalPrice
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make([]LineItem, len(c.Items))
	for i, item := range c.Items {
		out.Items[i] = item.clone()
	}
	return &out
}

func (c *Cart) indexOf(key Key) int {
	for i := range c.Items {
		if c.Items[i].Key().Equal(key) {
			return i
		}
	}
	return -1
}

func (c *Cart) drop(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
}
