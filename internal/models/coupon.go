package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

var hundred = decimal.NewFromInt(100)

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{1,32}$`)

type Coupon struct {
	Code       string          `json:"code"`
	Type       CouponType      `json:"type"`
	Value      decimal.Decimal `json:"value"`
	MinOrder   decimal.Decimal `json:"min_order"`
	UsageLimit *int            `json:"usage_limit,omitempty"`
	UsedCount  int             `json:"used_count"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NormalizeCouponCode trims and upper-cases a code. It returns
// ErrMalformedCoupon for non-empty input that cannot be a code.
func NormalizeCouponCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", nil
	}
	if !couponCodePattern.MatchString(c) {
		return "", ErrMalformedCoupon
	}
	return c, nil
}

// Validate checks admin input for a coupon definition.
func (c *Coupon) Validate() error {
	code, err := NormalizeCouponCode(c.Code)
	if err != nil {
		return Invalid("coupon code may contain only letters, digits, '-' and '_'")
	}
	if code == "" {
		return Invalid("coupon code is required")
	}
	c.Code = code
	switch c.Type {
	case CouponPercentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			return Invalid("percentage must be in (0, 100]")
		}
	case CouponFixed:
		if !c.Value.IsPositive() {
			return Invalid("fixed coupon value must be positive")
		}
	default:
		return Invalid("unknown coupon type %q", c.Type)
	}
	if c.MinOrder.IsNegative() {
		return Invalid("minimum order cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit < 1 {
		return Invalid("usage limit must be at least 1")
	}
	if c.UsedCount < 0 {
		return Invalid("used count cannot be negative")
	}
	return nil
}

func (c *Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// CheckApplicable returns the business-rule error that keeps the coupon from
// applying to subtotal at now, or nil.
func (c *Coupon) CheckApplicable(subtotal decimal.Decimal, now time.Time) error {
	switch {
	case !c.Active:
		return ErrCouponInactive
	case c.Expired(now):
		return ErrCouponExpired
	case c.Exhausted():
		return ErrCouponExhausted
	case subtotal.LessThan(c.MinOrder):
		return ErrCouponMinimumNotMet
	}
	return nil
}

// Discount computes the discount on subtotal; it never exceeds subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Type {
	case CouponPercentage:
		d = subtotal.Mul(c.Value).Div(hundred).Round(2)
	case CouponFixed:
		d = c.Value
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d
}
