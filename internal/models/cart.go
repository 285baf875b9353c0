package models

import "github.com/shopspring/decimal"

// CartItem is what a shopper's session stores: a reference, not a price.
type CartItem struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Qty       int    `json:"qty"`
}

// CartLine is a cart item resolved against the live catalog.
type CartLine struct {
	Product Product `json:"product"`
	Variant Variant `json:"variant"`
	Qty     int     `json:"qty"`
}

func (l CartLine) UnitPrice() decimal.Decimal {
	return l.Product.UnitPrice(l.Variant)
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Subtotal sums the line totals of a cart.
func Subtotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
