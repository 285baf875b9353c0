package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// IncrementCouponUsage consumes one use of the coupon. The limit is checked
// by the UPDATE itself, so two concurrent checkouts cannot both take the
// last use.
func (t *pgTx) IncrementCouponUsage(ctx context.Context, code string, now time.Time) error {
	const op = "increment coupon usage"

	res, err := t.q.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1,
		    updated_at = $2
		WHERE code = $1
		  AND active
		  AND (expires_at IS NULL OR expires_at >= $2)
		  AND (usage_limit IS NULL OR used_count < usage_limit)`,
		code, now)
	if err != nil {
		return classify(op, err)
	}
	n, err := rowsAffected(op, res)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// Work out which rule failed so the shopper gets a precise reason.
	c, err := scanCoupon(t.q.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
	if err != nil {
		err = classify(op, err)
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrCouponNotFound
		}
		return err
	}
	switch {
	case !c.Active:
		return models.ErrCouponInactive
	case c.Expired(now):
		return models.ErrCouponExpired
	default:
		return models.ErrCouponExhausted
	}
}

func (t *pgTx) ReleaseCouponUsage(ctx context.Context, code string) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE coupons
		SET used_count = GREATEST(used_count - 1, 0),
		    updated_at = NOW()
		WHERE code = $1`, code)
	return expectOne("release coupon usage", res, err)
}
