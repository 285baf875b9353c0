package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/orderlog"
	"github.com/Cheertaboi/storefront-order-service/internal/repository/memstore"
)

const (
	productID = "prod-a"
	skuBlueM  = "CLASSIC-TEE-BLUE-M"
	skuBlackL = "CLASSIC-TEE-BLACK-L"
)

// stepClock advances one second on every read so successive writes get
// distinct timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type memTimeline struct {
	mu      sync.Mutex
	entries []orderlog.Entry
}

func (m *memTimeline) Append(_ context.Context, e *orderlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memTimeline) History(_ context.Context, orderID int64) ([]orderlog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orderlog.Entry
	for _, e := range m.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	clock    *stepClock
	settings *SettingsService
	pricer   *Pricer
	orders   *OrderService
	coupons  *CouponService
	timeline *memTimeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    memstore.New(),
		clock:    &stepClock{t: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)},
		timeline: &memTimeline{},
	}
	f.settings = NewSettingsService(f.store, time.Minute, "Test Tees")
	f.pricer = NewPricer(f.store, f.clock.Now)
	f.orders = NewOrderService(f.store, f.pricer, f.settings, f.timeline, f.clock.Now)
	f.coupons = NewCouponService(f.store, f.clock.Now)

	override := decimal.NewFromInt(650)
	p := &models.Product{
		ID:     productID,
		Name:   "Classic Tee",
		Price:  decimal.NewFromInt(500),
		Status: models.ProductActive,
		Images: []string{"tee-front.jpg"},
		Variants: []models.Variant{
			{Color: "Blue", Size: "M", Stock: 10},
			{Color: "Black", Size: "L", Stock: 3, PriceOverride: &override},
		},
	}
	p.Normalize()
	require.NoError(t, f.store.CreateProduct(f.ctx, p))
	return f
}

func (f *fixture) addCoupon(t *testing.T, c models.Coupon) {
	t.Helper()
	c.Active = true
	require.NoError(t, f.coupons.Create(f.ctx, &c))
}

// line resolves a cart line against the current catalog.
func (f *fixture) line(t *testing.T, sku string, qty int) models.CartLine {
	t.Helper()
	p, err := f.store.GetProduct(f.ctx, productID)
	require.NoError(t, err)
	v, ok := p.Variant(sku)
	require.True(t, ok, sku)
	return models.CartLine{Product: *p, Variant: *v, Qty: qty}
}

func (f *fixture) stock(t *testing.T, sku string) int {
	t.Helper()
	p, err := f.store.GetProduct(f.ctx, productID)
	require.NoError(t, err)
	v, ok := p.Variant(sku)
	require.True(t, ok, sku)
	return v.Stock
}

func (f *fixture) usedCount(t *testing.T, code string) int {
	t.Helper()
	c, err := f.store.GetCouponByCode(f.ctx, code)
	require.NoError(t, err)
	return c.UsedCount
}

func checkout(coupon string, lines ...models.CartLine) models.Checkout {
	return models.Checkout{
		Cart:       lines,
		Customer:   models.Customer{Name: "Rahim Uddin", Phone: "+880 1711-000000", Email: "rahim@example.com"},
		Shipping:   models.ShippingInfo{Address: "House 12, Road 5", City: "Dhaka", PostalCode: "1207", Method: "Standard"},
		Payment:    models.PaymentDraft{Method: models.PaymentBkash, TransactionID: "8N7A6B5C4D"},
		CouponCode: coupon,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(n int) *int { return &n }
