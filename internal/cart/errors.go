package cart

import "fmt"

// InvalidItemError rejects an add whose item has no product id or a
// non-positive quantity.
type InvalidItemError struct {
	ProductID int64
	Quantity  int
	Reason    string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid line item %d (quantity %d): %s", e.ProductID, e.Quantity, e.Reason)
}
