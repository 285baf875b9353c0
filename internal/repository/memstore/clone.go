package memstore

import "github.com/Cheertaboi/storefront-order-service/internal/models"

// Records are copied on the way in and out so callers never alias stored
// state. decimal.Decimal values are immutable and safe to share.

func (st state) clone() state {
	out := state{
		products: make(map[string]*models.Product, len(st.products)),
		coupons:  make(map[string]*models.Coupon, len(st.coupons)),
		orders:   make(map[int64]*models.Order, len(st.orders)),
		reviews:  make(map[string][]models.Review, len(st.reviews)),
	}
	for k, p := range st.products {
		out.products[k] = cloneProduct(p)
	}
	for k, c := range st.coupons {
		out.coupons[k] = cloneCoupon(c)
	}
	for k, o := range st.orders {
		out.orders[k] = cloneOrder(o)
	}
	for k, rs := range st.reviews {
		out.reviews[k] = append([]models.Review(nil), rs...)
	}
	if st.settings != nil {
		out.settings = cloneSettings(st.settings)
	}
	return out
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Images = append([]string(nil), p.Images...)
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp
}

func cloneCoupon(c *models.Coupon) *models.Coupon {
	cp := *c
	if c.UsageLimit != nil {
		n := *c.UsageLimit
		cp.UsageLimit = &n
	}
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		cp.ExpiresAt = &t
	}
	return &cp
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Lines = append([]models.OrderLine(nil), o.Lines...)
	if o.Payment.VerifiedAt != nil {
		t := *o.Payment.VerifiedAt
		cp.Payment.VerifiedAt = &t
	}
	return &cp
}

func cloneSettings(s *models.Settings) *models.Settings {
	return s.Clone()
}
