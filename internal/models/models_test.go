package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGenerateSKU(t *testing.T) {
	assert.Equal(t, "CLASSIC-CREW-TEE-NAVY-BLUE-M", GenerateSKU("Classic Crew Tee", "Navy Blue", "M"))
	assert.Equal(t, "TEE-RED-XL", GenerateSKU("  Tee ", "red", " XL "))
	assert.Equal(t, GenerateSKU("Tee", "Red", "M"), GenerateSKU("Tee", "Red", "M"))
}

func TestProductNormalizeAndValidate(t *testing.T) {
	p := &Product{
		Name:  " Classic Tee ",
		Price: dec("500"),
		Tags:  []string{"Summer", "summer", " ", "cotton"},
		Variants: []Variant{
			{Color: "Blue", Size: "M", Stock: 3},
			{Color: "Blue", Size: "L", Stock: 0},
		},
	}
	p.Normalize()
	require.NoError(t, p.Validate())
	assert.Equal(t, "classic-tee", p.Slug)
	assert.Equal(t, []string{"summer", "cotton"}, p.Tags)
	assert.Equal(t, ProductDraft, p.Status)
	assert.Equal(t, "CLASSIC-TEE-BLUE-M", p.Variants[0].SKU)

	p.Variants = append(p.Variants, Variant{Color: "blue", Size: "M"})
	p.Normalize()
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	p.Variants = p.Variants[:2]
	p.Variants[0].Stock = -1
	assert.Error(t, p.Validate())
}

func TestUnitPriceOverride(t *testing.T) {
	override := dec("650")
	p := Product{Price: dec("500")}
	assert.True(t, p.UnitPrice(Variant{}).Equal(dec("500")))
	assert.True(t, p.UnitPrice(Variant{PriceOverride: &override}).Equal(dec("650")))
}

func TestCouponCheckApplicable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	limit := 2

	tests := []struct {
		name   string
		coupon Coupon
		sub    string
		want   error
	}{
		{"ok", Coupon{Active: true, MinOrder: dec("100")}, "100", nil},
		{"inactive", Coupon{Active: false}, "100", ErrCouponInactive},
		{"expired", Coupon{Active: true, ExpiresAt: &past}, "100", ErrCouponExpired},
		{"exhausted", Coupon{Active: true, UsageLimit: &limit, UsedCount: 2}, "100", ErrCouponExhausted},
		{"below minimum", Coupon{Active: true, MinOrder: dec("500")}, "499.99", ErrCouponMinimumNotMet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.CheckApplicable(dec(tt.sub), now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCouponDiscountNeverExceedsSubtotal(t *testing.T) {
	full := Coupon{Type: CouponPercentage, Value: dec("100")}
	assert.True(t, full.Discount(dec("733.33")).Equal(dec("733.33")))

	fixed := Coupon{Type: CouponFixed, Value: dec("2000")}
	assert.True(t, fixed.Discount(dec("1500")).Equal(dec("1500")))

	pct := Coupon{Type: CouponPercentage, Value: dec("15")}
	assert.True(t, pct.Discount(dec("333")).Equal(dec("49.95")))
}

func TestCouponValidate(t *testing.T) {
	c := Coupon{Code: " save10 ", Type: CouponPercentage, Value: dec("10")}
	require.NoError(t, c.Validate())
	assert.Equal(t, "SAVE10", c.Code)

	bad := []Coupon{
		{Code: "", Type: CouponFixed, Value: dec("1")},
		{Code: "BAD CODE", Type: CouponFixed, Value: dec("1")},
		{Code: "X", Type: CouponPercentage, Value: dec("101")},
		{Code: "X", Type: CouponPercentage, Value: dec("0")},
		{Code: "X", Type: "bogus", Value: dec("5")},
	}
	for i, c := range bad {
		assert.ErrorIs(t, c.Validate(), ErrInvalidInput, "case %d", i)
	}
}

func TestNormalizeCouponCode(t *testing.T) {
	code, err := NormalizeCouponCode(" save10 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", code)

	code, err = NormalizeCouponCode("   ")
	require.NoError(t, err)
	assert.Empty(t, code)

	_, err = NormalizeCouponCode("drop table;")
	assert.ErrorIs(t, err, ErrMalformedCoupon)
}

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPendingVerification: {StatusVerified, StatusCanceled, StatusRefunded},
		StatusVerified:            {StatusProcessing, StatusCanceled, StatusRefunded},
		StatusProcessing:          {StatusShipped, StatusCanceled, StatusRefunded},
		StatusShipped:             {StatusDelivered},
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
}

func TestOrderOwnedBy(t *testing.T) {
	o := Order{Customer: Customer{Phone: "+880 1711-000000", Email: "Buyer@Example.com"}}
	assert.True(t, o.OwnedBy("buyer@example.com"))
	assert.True(t, o.OwnedBy("8801711000000"))
	assert.False(t, o.OwnedBy("not-the-owner@example.com"))
	assert.False(t, o.OwnedBy(""))
}

func TestErrorKindsAndCodes(t *testing.T) {
	wrapped := fmt.Errorf("quote: %w", ErrCouponExpired)
	assert.Equal(t, KindBusinessRule, KindOf(wrapped))
	assert.Equal(t, "coupon_expired", CodeOf(wrapped))

	stock := fmt.Errorf("create: %w", &InsufficientStockError{SKU: "TEE-RED-M", Requested: 3, Available: 1})
	assert.ErrorIs(t, stock, ErrInsufficientStock)
	assert.Equal(t, "insufficient_stock", CodeOf(stock))
	var se *InsufficientStockError
	require.ErrorAs(t, stock, &se)
	assert.Equal(t, "TEE-RED-M", se.SKU)

	storage := &StorageUnavailableError{Op: "orders.insert", Err: errors.New("dial tcp: timeout")}
	assert.Equal(t, KindStorage, KindOf(storage))
	assert.True(t, storage.Retryable())

	assert.Equal(t, KindValidation, KindOf(Invalid("name is required")))
	assert.Equal(t, "internal_error", CodeOf(errors.New("boom")))
}

func TestCarrySKUs(t *testing.T) {
	prev := &Product{Name: "Classic Tee", Variants: []Variant{{Color: "Blue", Size: "M"}}}
	prev.Normalize()

	next := &Product{
		Name: "Classic Tee v2",
		Variants: []Variant{
			{Color: "blue", Size: "m", SKU: "HAND-TYPED"},
			{Color: "Red", Size: "S"},
		},
	}
	next.CarrySKUs(prev)
	next.Normalize()

	assert.Equal(t, "CLASSIC-TEE-BLUE-M", next.Variants[0].SKU)
	assert.Equal(t, "CLASSIC-TEE-V2-RED-S", next.Variants[1].SKU)

	v, ok := next.VariantByOption(" RED ", "s")
	require.True(t, ok)
	assert.Equal(t, "CLASSIC-TEE-V2-RED-S", v.SKU)
}

func TestNormalizeSanitizesDescription(t *testing.T) {
	p := &Product{
		Name: "Tee",
		Description: `<p>Soft <b>cotton</b><script>alert(1)</script></p>` +
			`<a href="https://example.com/care" onclick="steal()">care</a>` +
			`<a href="javascript:alert(1)">bad</a><img src="x.png">`,
	}
	p.Normalize()

	assert.Contains(t, p.Description, "<p>Soft <b>cotton</b></p>")
	assert.Contains(t, p.Description, `href="https://example.com/care"`)
	assert.NotContains(t, p.Description, "script")
	assert.NotContains(t, p.Description, "onclick")
	assert.NotContains(t, p.Description, "javascript:")
	assert.NotContains(t, p.Description, "<img")
}

func TestNormalizeImages(t *testing.T) {
	p := &Product{Name: "Tee"}
	p.Normalize()
	assert.NotNil(t, p.Images)
	assert.Empty(t, p.Images)

	p.Images = []string{" front.jpg ", "", "back.jpg"}
	p.Normalize()
	assert.Equal(t, []string{"front.jpg", "back.jpg"}, p.Images)
}

func TestReviewValidate(t *testing.T) {
	valid := Review{Name: " Nusrat ", Rating: 5, Comment: " Fits well "}
	valid.Normalize()
	require.NoError(t, valid.Validate())
	assert.Equal(t, "Nusrat", valid.Name)

	cases := map[string]Review{
		"no name":     {Rating: 4, Comment: "ok"},
		"no comment":  {Name: "A", Rating: 4},
		"rating zero": {Name: "A", Rating: 0, Comment: "ok"},
		"rating six":  {Name: "A", Rating: 6, Comment: "ok"},
		"long name":   {Name: strings.Repeat("n", 81), Rating: 3, Comment: "ok"},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			r.Normalize()
			assert.ErrorIs(t, r.Validate(), ErrInvalidInput)
		})
	}
}

func TestAverageRating(t *testing.T) {
	assert.True(t, AverageRating(nil).IsZero())
	got := AverageRating([]Review{{Rating: 5}, {Rating: 4}, {Rating: 4}})
	assert.Equal(t, "4.3", got.String())
}
