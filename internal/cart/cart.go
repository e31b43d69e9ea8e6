// Package cart holds the per-instance cart and customer data plus their
// validation predicates. Pure data - no I/O, no rendering.
package cart

// Line is one cart entry. UnitPrice is tax-inclusive (catalog price);
// TaxRatePercent is the line's own rate (16 means 16%).
//
// A Line is owned by exactly one flow instance and is mutated only through
// Cart.SetQuantity. Quantity 0 is a valid state (removed-but-present line);
// lines are never auto-deleted.
type Line struct {
	ProductID      string
	Name           string
	UnitPrice      float64
	TaxRatePercent float64
	Quantity       int
	Variant        string
}

// Cart is the mutable line collection for one flow instance.
type Cart struct {
	Lines []Line
}

// New builds a cart from catalog lines, giving each a starting quantity
// of 1 unless the line already carries one.
func New(lines []Line) *Cart {
	c := &Cart{Lines: make([]Line, len(lines))}
	copy(c.Lines, lines)
	for i := range c.Lines {
		if c.Lines[i].Quantity == 0 {
			c.Lines[i].Quantity = 1
		}
	}
	return c
}

// SetQuantity replaces the quantity of the line at index. Negative
// quantities and out-of-range indexes are rejected as a no-op; the return
// value reports whether anything changed (callers use it to decide on a
// re-render). No upper bound is applied.
func (c *Cart) SetQuantity(index, quantity int) bool {
	if quantity < 0 {
		return false
	}
	if index < 0 || index >= len(c.Lines) {
		return false
	}
	c.Lines[index].Quantity = quantity
	return true
}

// Total is the tax-inclusive cart total: sum of unitPrice * quantity over
// all lines. Floating point, no intermediate rounding.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// Len returns the number of lines, including quantity-0 lines.
func (c *Cart) Len() int {
	return len(c.Lines)
}
