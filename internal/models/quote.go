package models

import "github.com/shopspring/decimal"

// Quote is a priced cart. It is never persisted.
type Quote struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	Total          decimal.Decimal `json:"total"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	ShippingMethod string          `json:"shipping_method"`
}

func (q *Quote) Amounts() Amounts {
	return Amounts{
		Subtotal: q.Subtotal,
		Discount: q.Discount,
		Shipping: q.ShippingFee,
		Total:    q.Total,
	}
}
