// Package cart implements the session-scoped pre-order selection. A cart is
// a pure in-memory reducer over menu items; it is never persisted and its
// state is lost when the owning session ends.
package cart

import "github.com/daikochiya/teashop-app/models"

// Line is one cart entry: a menu-item snapshot plus a quantity.
type Line struct {
	Item     models.MenuItem `json:"item"`
	Quantity int             `json:"quantity"`
}

// Cart keeps lines in insertion order. All operations are total functions;
// none of them can fail.
type Cart struct {
	lines []Line
}

// Add increments the quantity of an existing line with the same menu-item
// id, or appends a new line with quantity 1.
func (c *Cart) Add(item models.MenuItem) {
	for i := range c.lines {
		if c.lines[i].Item.ID == item.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Item: item, Quantity: 1})
}

// Remove deletes the line with the given menu-item id. No-op if absent.
func (c *Cart) Remove(itemID string) {
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less
// collapses to removal.
func (c *Cart) SetQuantity(itemID string, qty int) {
	if qty <= 0 {
		c.Remove(itemID)
		return
	}
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines[i].Quantity = qty
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Total sums discount-adjusted unit price times quantity over all lines.
func (c *Cart) Total() float64 {
	var sum float64
	for _, l := range c.lines {
		sum += l.Item.EffectivePrice() * float64(l.Quantity)
	}
	return sum
}

// Count returns the total number of units across all lines.
func (c *Cart) Count() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Lines returns a copy of the current entries.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
