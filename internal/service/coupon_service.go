package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

// CouponService is the admin side of coupons. Usage counting belongs to the
// order lifecycle.
type CouponService struct {
	coupons repository.Coupons
	now     Clock
}

func NewCouponService(coupons repository.Coupons, now Clock) *CouponService {
	if now == nil {
		now = utcNow
	}
	return &CouponService{coupons: coupons, now: now}
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.ListCoupons(ctx)
}

func (s *CouponService) Get(ctx context.Context, code string) (*models.Coupon, error) {
	code, err := s.normalize(code)
	if err != nil {
		return nil, err
	}
	return s.coupons.GetCouponByCode(ctx, code)
}

func (s *CouponService) Create(ctx context.Context, c *models.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	now := s.now()
	c.UsedCount = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.coupons.CreateCoupon(ctx, c); err != nil {
		return fmt.Errorf("coupon %s: %w", c.Code, err)
	}
	return nil
}

// Update replaces the definition of an existing coupon. The used count is
// owned by the store and is not changed.
func (s *CouponService) Update(ctx context.Context, code string, c *models.Coupon) error {
	code, err := s.normalize(code)
	if err != nil {
		return err
	}
	c.Code = code
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = s.now()
	return s.coupons.UpdateCoupon(ctx, c)
}

func (s *CouponService) SetActive(ctx context.Context, code string, active bool) error {
	code, err := s.normalize(code)
	if err != nil {
		return err
	}
	return s.coupons.SetCouponActive(ctx, code, active)
}

// Delete removes a coupon. Orders that used it keep the code; a later
// cancellation skips the usage release.
func (s *CouponService) Delete(ctx context.Context, code string) error {
	code, err := s.normalize(code)
	if err != nil {
		return err
	}
	return s.coupons.DeleteCoupon(ctx, code)
}

// Applicable lists the coupons that would apply to a cart with the given
// subtotal right now.
func (s *CouponService) Applicable(ctx context.Context, subtotal decimal.Decimal) ([]models.Coupon, error) {
	all, err := s.coupons.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	applicable := []models.Coupon{}
	for _, c := range all {
		if c.CheckApplicable(subtotal, now) == nil {
			applicable = append(applicable, c)
		}
	}
	return applicable, nil
}

func (s *CouponService) normalize(code string) (string, error) {
	c, err := models.NormalizeCouponCode(code)
	if err != nil {
		return "", err
	}
	if c == "" {
		return "", models.Invalid("coupon code is required")
	}
	return c, nil
}
