// Package cart is the buyer-local selection of products before checkout.
// Nothing here is persisted; derived values are recomputed from the lines.
package cart

import "github.com/shopspring/decimal"

type Line struct {
	ProductID         string           `json:"product_id" binding:"required"`
	Name              string           `json:"name" binding:"required"`
	ImageRef          string           `json:"image_ref"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	OriginalUnitPrice *decimal.Decimal `json:"original_unit_price,omitempty"`
	Quantity          int              `json:"quantity" binding:"required,min=1"`
	VendorID          string           `json:"vendor_id" binding:"required"`
	VendorName        string           `json:"vendor_name"`
	VendorCity        string           `json:"vendor_city"`
}

// LineTotal is unitPrice × quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineSavings is (original − unit) × quantity, or zero without a real discount.
func (l Line) LineSavings() decimal.Decimal {
	if l.OriginalUnitPrice == nil || !l.OriginalUnitPrice.GreaterThan(l.UnitPrice) {
		return decimal.Zero
	}
	return l.OriginalUnitPrice.Sub(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order, one line per product.
type Cart struct {
	lines []Line
}

func New(lines ...Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		c.AddOrUpdateLine(l, l.Quantity)
	}
	return c
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddOrUpdateLine adds deltaQty units of the product. An existing line is
// incremented; a line that drops to zero or below is removed.
func (c *Cart) AddOrUpdateLine(product Line, deltaQty int) {
	if i := c.index(product.ProductID); i >= 0 {
		c.SetQuantity(product.ProductID, c.lines[i].Quantity+deltaQty)
		return
	}
	if deltaQty <= 0 {
		return
	}
	product.Quantity = deltaQty
	c.lines = append(c.lines, product)
}

func (c *Cart) RemoveLine(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// SetQuantity sets the quantity of an existing line; qty <= 0 removes it.
func (c *Cart) SetQuantity(productID string, qty int) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	if qty <= 0 {
		c.RemoveLine(productID)
		return
	}
	c.lines[i].Quantity = qty
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

func (c *Cart) Savings() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.LineSavings())
	}
	return sum
}

// Total equals Subtotal; delivery is confirmed after checkout.
func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal()
}

// Summary is the derived view returned to clients.
type Summary struct {
	Lines     []Line          `json:"lines"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Savings   decimal.Decimal `json:"savings"`
	Total     decimal.Decimal `json:"total"`
}

func (c *Cart) Summary() Summary {
	return Summary{
		Lines:     c.Lines(),
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal(),
		Savings:   c.Savings(),
		Total:     c.Total(),
	}
}
