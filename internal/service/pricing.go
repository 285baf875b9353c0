package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

// Pricer computes quotes. It only reads coupons; usage is consumed when an
// order is placed.
type Pricer struct {
	coupons repository.Coupons
	now     Clock
}

func NewPricer(coupons repository.Coupons, now Clock) *Pricer {
	if now == nil {
		now = utcNow
	}
	return &Pricer{coupons: coupons, now: now}
}

// Quote prices lines with an optional coupon and the named shipping method.
// Free shipping applies when the discounted subtotal reaches the threshold.
func (p *Pricer) Quote(ctx context.Context, lines []models.CartLine, couponCode, shippingMethod string, settings *models.Settings) (*models.Quote, error) {
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}
	subtotal := models.Subtotal(lines)

	q := &models.Quote{Subtotal: subtotal, Discount: decimal.Zero}

	code, err := models.NormalizeCouponCode(couponCode)
	if err != nil {
		return nil, err
	}
	if code != "" {
		c, err := p.coupons.GetCouponByCode(ctx, code)
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrCouponNotFound
		}
		if err != nil {
			return nil, err
		}
		if err := c.CheckApplicable(subtotal, p.now()); err != nil {
			return nil, err
		}
		q.Discount = c.Discount(subtotal)
		q.CouponCode = c.Code
	}

	method, ok := settings.ShippingMethod(shippingMethod)
	if !ok {
		return nil, models.ErrUnknownShippingMethod
	}
	q.ShippingMethod = method.Name
	q.ShippingFee = method.Fee
	if subtotal.Sub(q.Discount).GreaterThanOrEqual(settings.FreeShippingThreshold) {
		q.ShippingFee = decimal.Zero
	}

	q.Total = subtotal.Sub(q.Discount).Add(q.ShippingFee)
	if q.Total.IsNegative() {
		q.Total = decimal.Zero
	}
	return q, nil
}
