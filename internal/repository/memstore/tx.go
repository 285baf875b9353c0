package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// memTx runs with Store.mu held for writing by InTx.
type memTx struct {
	s *Store
}

func (t *memTx) NextOrderID(context.Context) (int64, error) {
	t.s.nextID++
	return t.s.nextID, nil
}

func (t *memTx) variant(productID, sku string) *models.Variant {
	p, ok := t.s.st.products[productID]
	if !ok {
		return nil
	}
	v, ok := p.Variant(sku)
	if !ok {
		return nil
	}
	return v
}

func (t *memTx) DecrementStock(_ context.Context, productID, sku string, qty int) error {
	v := t.variant(productID, sku)
	if v == nil {
		return &models.InsufficientStockError{SKU: sku, Requested: qty}
	}
	if v.Stock < qty {
		return &models.InsufficientStockError{SKU: sku, Requested: qty, Available: v.Stock}
	}
	v.Stock -= qty
	return nil
}

func (t *memTx) RestoreStock(_ context.Context, productID, sku string, qty int) error {
	v := t.variant(productID, sku)
	if v == nil {
		return fmt.Errorf("restore stock: %w", models.ErrNotFound)
	}
	v.Stock += qty
	return nil
}

func (t *memTx) IncrementCouponUsage(_ context.Context, code string, now time.Time) error {
	c, ok := t.s.st.coupons[code]
	switch {
	case !ok:
		return models.ErrCouponNotFound
	case !c.Active:
		return models.ErrCouponInactive
	case c.Expired(now):
		return models.ErrCouponExpired
	case c.Exhausted():
		return models.ErrCouponExhausted
	}
	c.UsedCount++
	c.UpdatedAt = now
	return nil
}

func (t *memTx) ReleaseCouponUsage(_ context.Context, code string) error {
	c, ok := t.s.st.coupons[code]
	if !ok {
		return fmt.Errorf("release coupon usage: %w", models.ErrNotFound)
	}
	if c.UsedCount > 0 {
		c.UsedCount--
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *models.Order) error {
	if _, ok := t.s.st.orders[o.OrderID]; ok {
		return fmt.Errorf("insert order: %w", models.ErrConflict)
	}
	t.s.st.orders[o.OrderID] = cloneOrder(o)
	return nil
}

func (t *memTx) GetOrderForUpdate(_ context.Context, orderID int64) (*models.Order, error) {
	o, ok := t.s.st.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("get order for update: %w", models.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (t *memTx) UpdateOrder(_ context.Context, o *models.Order) error {
	old, ok := t.s.st.orders[o.OrderID]
	if !ok {
		return fmt.Errorf("update order: %w", models.ErrNotFound)
	}
	next := cloneOrder(old)
	next.Status = o.Status
	next.Payment = o.Payment
	if o.Payment.VerifiedAt != nil {
		at := *o.Payment.VerifiedAt
		next.Payment.VerifiedAt = &at
	}
	next.Notes = o.Notes
	next.UpdatedAt = o.UpdatedAt
	t.s.st.orders[o.OrderID] = next
	return nil
}
