package domain

import "errors"

var (
	ErrNotInCart         = errors.New("item not in cart")
	ErrSavedCartNotFound = errors.New("saved cart not found")
)

// Cart maps an item key ("<category>:<item_id>") to a reserved quantity.
// Item keys are opaque to the customer store; whether the item actually
// exists in the catalog is the caller's concern.
type Cart map[string]int

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
