package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/api/handlers"
	"github.com/Cheertaboi/storefront-order-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-order-service/internal/assets"
	"github.com/Cheertaboi/storefront-order-service/internal/cart"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/ratelimit"
	"github.com/Cheertaboi/storefront-order-service/internal/repository/memstore"
	"github.com/Cheertaboi/storefront-order-service/internal/service"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

type testServer struct {
	t         *testing.T
	handler   http.Handler
	store     *memstore.Store
	settings  *service.SettingsService
	coupons   *service.CouponService
	productID string
	cookie    *http.Cookie
}

func newTestServer(t *testing.T, rule ratelimit.Rule, opts ...func(*Deps)) *testServer {
	t.Helper()
	store := memstore.New()
	settings := service.NewSettingsService(store, time.Minute, "Test Tees")
	pricer := service.NewPricer(store, nil)
	catalog := service.NewCatalogService(store, nil)
	coupons := service.NewCouponService(store, nil)
	assetStore, err := assets.NewStore(t.TempDir(), 0)
	require.NoError(t, err)

	p := &models.Product{
		Name:     "Classic Tee",
		Price:    decimal.NewFromInt(500),
		Status:   models.ProductActive,
		Variants: []models.Variant{{Color: "Blue", Size: "M", Stock: 10}},
	}
	require.NoError(t, catalog.Create(t.Context(), p))

	deps := Deps{
		Store:         store,
		Catalog:       catalog,
		Reviews:       service.NewReviewService(store, store, nil),
		Carts:         service.NewCartService(cart.NewMemoryStore(time.Hour), store),
		Pricer:        pricer,
		Orders:        service.NewOrderService(store, pricer, settings, nil, nil),
		Coupons:       coupons,
		Settings:      settings,
		Reports:       service.NewReportService(store),
		Assets:        assetStore,
		Limiter:       ratelimit.NewMemory(rule, 100),
		AdminUser:     "admin",
		AdminPassword: "secret",
	}
	for _, opt := range opts {
		opt(&deps)
	}
	handler := NewRouter(deps)
	return &testServer{
		t:         t,
		handler:   handler,
		store:     store,
		settings:  settings,
		coupons:   coupons,
		productID: p.ID,
	}
}

func (s *testServer) send(req *http.Request, admin bool) *httptest.ResponseRecorder {
	if admin {
		req.SetBasicAuth("admin", "secret")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			s.cookie = c
		}
	}
	return rec
}

func (s *testServer) do(method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, admin)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func checkoutBody() handlers.CheckoutRequest {
	return handlers.CheckoutRequest{
		Customer: models.Customer{Name: "Rahim Uddin", Phone: "+880 1711-000000", Email: "rahim@example.com"},
		Shipping: models.ShippingInfo{Address: "House 12", City: "Dhaka", Method: "Standard"},
		Payment:  models.PaymentDraft{Method: models.PaymentBkash, TransactionID: "8N7A6B5C4D"},
	}
}

func defaultRule() ratelimit.Rule {
	return ratelimit.Rule{Limit: 100, Window: time.Minute}
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t, defaultRule())
	require.NoError(t, s.coupons.Create(t.Context(), &models.Coupon{
		Code: "SAVE10", Type: models.CouponPercentage, Value: decimal.NewFromInt(10), Active: true,
	}))

	rec := s.do(http.MethodPost, "/api/cart/items", handlers.AddCartItemRequest{
		ProductID: s.productID, Color: "Blue", Size: "M", Qty: 2,
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, s.cookie)
	cartResp := decode[handlers.CartResponse](t, rec)
	require.Len(t, cartResp.Items, 1)
	assert.Equal(t, "1000", cartResp.Subtotal.String())

	rec = s.do(http.MethodPost, "/api/cart/quote", handlers.QuoteRequest{CouponCode: "save10", ShippingMethod: "Standard"}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q := decode[models.Quote](t, rec)
	assert.Equal(t, "100", q.Discount.String())
	assert.Equal(t, "50", q.ShippingFee.String())
	assert.Equal(t, "950", q.Total.String())

	rec = s.do(http.MethodGet, "/api/coupons/applicable", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"SAVE10"}, decode[handlers.ApplicableResponse](t, rec).ApplicableCoupons)

	body := checkoutBody()
	body.CouponCode = "SAVE10"
	rec = s.do(http.MethodPost, "/api/checkout", body, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[handlers.CheckoutResponse](t, rec)
	assert.Positive(t, placed.OrderID)
	assert.Equal(t, models.StatusPendingVerification, placed.Status)
	assert.Equal(t, "950", placed.Amounts.Total.String())
	assert.Equal(t, 24, placed.VerificationSLAHours)

	rec = s.do(http.MethodGet, "/api/cart", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[handlers.CartResponse](t, rec).Items)

	trackPath := "/api/orders/" + jsonNumber(placed.OrderID) + "/track"
	rec = s.do(http.MethodGet, trackPath+"?contact=8801711000000", nil, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusPendingVerification, decode[models.OrderSummary](t, rec).Status)

	rec = s.do(http.MethodGet, trackPath+"?contact=someone@else.com", nil, false)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[handlers.ErrorResponse](t, rec).Error)
}

func TestCheckoutErrors(t *testing.T) {
	s := newTestServer(t, defaultRule())

	rec := s.do(http.MethodPost, "/api/checkout", checkoutBody(), false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[handlers.ErrorResponse](t, rec).Error)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"customer":`))
	rec = s.send(req, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_body", decode[handlers.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/cart/items", handlers.AddCartItemRequest{ProductID: s.productID, Color: "Blue", Size: "M", Qty: 11}, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "insufficient_stock", decode[handlers.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/cart/items", handlers.AddCartItemRequest{ProductID: s.productID, Color: "Blue", Size: "M"}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := checkoutBody()
	body.Payment.Screenshot = "missing.png"
	rec = s.do(http.MethodPost, "/api/checkout", body, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body = checkoutBody()
	body.CouponCode = "NOPE"
	rec = s.do(http.MethodPost, "/api/checkout", body, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "coupon_not_found", decode[handlers.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/coupons/validate", handlers.ValidateRequestBody{CouponCode: "NOPE"}, false)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[handlers.ValidateResponse](t, rec)
	assert.False(t, v.IsValid)
	assert.Equal(t, "coupon_not_found", v.Code)
}

func TestPaymentProofUpload(t *testing.T) {
	s := newTestServer(t, defaultRule())

	upload := func(name string, data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("screenshot", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/uploads/payment-proof", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return s.send(req, false)
	}

	rec := upload("proof.png", pngBytes)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := decode[handlers.UploadResponse](t, rec)
	assert.True(t, strings.HasSuffix(up.Ref, "_proof.png"))

	rec = s.do(http.MethodGet, up.URL, nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = upload("proof.gif", []byte("GIF89a"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/cart/items", handlers.AddCartItemRequest{ProductID: s.productID, Color: "Blue", Size: "M"}, false).Code)
	body := checkoutBody()
	body.Payment.Screenshot = up.Ref
	rec = s.do(http.MethodPost, "/api/checkout", body, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAdminOrders(t *testing.T) {
	s := newTestServer(t, defaultRule())
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/cart/items", handlers.AddCartItemRequest{ProductID: s.productID, Color: "Blue", Size: "M"}, false).Code)
	rec := s.do(http.MethodPost, "/api/checkout", checkoutBody(), false)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := jsonNumber(decode[handlers.CheckoutResponse](t, rec).OrderID)

	rec = s.do(http.MethodGet, "/admin/orders", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/admin/orders?status=pending_verification", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[handlers.OrderListResponse](t, rec).Orders, 1)

	rec = s.do(http.MethodGet, "/admin/orders?status=lost", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/orders/"+id+"/verify", handlers.VerifyRequest{Decision: models.DecisionAccept}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusVerified, decode[models.Order](t, rec).Status)

	rec = s.do(http.MethodPost, "/admin/orders/"+id+"/verify", handlers.VerifyRequest{Decision: models.DecisionAccept}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "already_verified", decode[handlers.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/admin/orders/"+id+"/status", handlers.StatusRequest{Status: models.StatusShipped}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_transition", decode[handlers.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/admin/orders/"+id+"/status", handlers.StatusRequest{Status: models.StatusProcessing, Note: "packed"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/orders/abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/admin/orders/777", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/admin/orders/export.csv", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(rec.Body.String()), "\n")+1)

	rec = s.do(http.MethodGet, "/admin/customers", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.CustomerSummary](t, rec), 1)
}

func TestAdminCoupons(t *testing.T) {
	s := newTestServer(t, defaultRule())

	rec := s.do(http.MethodPost, "/admin/coupons", handlers.CreateCouponRequest{
		CouponCode: "eid", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(100),
		ExpiryDate: "2099-01-01T00:00:00Z",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Coupon](t, rec)
	assert.Equal(t, "EID", created.Code)
	assert.True(t, created.Active)

	rec = s.do(http.MethodPost, "/admin/coupons", handlers.CreateCouponRequest{
		CouponCode: "EID", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(5),
	}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/admin/coupons", handlers.CreateCouponRequest{
		CouponCode: "BAD", DiscountType: "fixed", DiscountValue: decimal.NewFromInt(5), ExpiryDate: "tomorrow",
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/coupons/eid/active", handlers.SetActiveRequest{Active: false}, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/admin/coupons/EID", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Coupon](t, rec).Active)

	rec = s.do(http.MethodDelete, "/admin/coupons/EID", nil, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/admin/coupons/EID", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMaintenanceMode(t *testing.T) {
	s := newTestServer(t, defaultRule())
	st, err := s.settings.Get(t.Context())
	require.NoError(t, err)
	st.Maintenance = true
	require.NoError(t, s.settings.Save(t.Context(), st))

	rec := s.do(http.MethodGet, "/api/products", nil, false)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "maintenance", decode[handlers.ErrorResponse](t, rec).Error)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil, false).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/admin/products", nil, true).Code)
}

func TestRateLimitedRoutes(t *testing.T) {
	s := newTestServer(t, ratelimit.Rule{Limit: 2, Window: time.Minute})

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodGet, "/api/orders/1/track?contact=x", nil, false)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := s.do(http.MethodGet, "/api/orders/1/track?contact=x", nil, false)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Browsing is not limited.
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/products", nil, false).Code)
}

func TestRateLimitForwardedFor(t *testing.T) {
	track := func(s *testServer, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/1/track?contact=x", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		return s.send(req, false).Code
	}

	// Without a trusted proxy the header is ignored, so rotating it
	// does not buy fresh quota.
	s := newTestServer(t, ratelimit.Rule{Limit: 1, Window: time.Minute})
	assert.Equal(t, http.StatusNotFound, track(s, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, track(s, "203.0.113.2"))

	s = newTestServer(t, ratelimit.Rule{Limit: 1, Window: time.Minute}, func(d *Deps) { d.TrustProxy = true })
	assert.Equal(t, http.StatusNotFound, track(s, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, track(s, "203.0.113.1"))
	assert.Equal(t, http.StatusNotFound, track(s, "203.0.113.2"))
}

func TestCheckoutDropsDraftedProduct(t *testing.T) {
	s := newTestServer(t, defaultRule())
	rec := s.do(http.MethodPost, "/api/cart/items", handlers.AddCartItemRequest{ProductID: s.productID, Color: "Blue", Size: "M"}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/admin/products/"+s.productID+"/toggle", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/checkout", checkoutBody(), false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "product_unavailable", decode[handlers.ErrorResponse](t, rec).Error)

	orders, err := s.store.ListOrders(t.Context(), models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProductReviews(t *testing.T) {
	s := newTestServer(t, defaultRule())

	rec := s.do(http.MethodGet, "/api/products/classic-tee", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[handlers.ProductDetailResponse](t, rec)
	assert.Equal(t, s.productID, detail.ID)
	assert.NotNil(t, detail.Reviews)
	assert.Zero(t, detail.ReviewCount)

	rec = s.do(http.MethodPost, "/api/products/classic-tee/reviews", handlers.ReviewRequest{
		Name: "Rahim", Rating: 5, Comment: "<b>Great</b> fit",
	}, false)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Review](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, s.productID, created.ProductID)

	rec = s.do(http.MethodPost, "/api/products/classic-tee/reviews", handlers.ReviewRequest{Name: "Karim", Rating: 4, Comment: "Nice"}, false)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/api/products/classic-tee/reviews", handlers.ReviewRequest{Name: "Karim", Rating: 0, Comment: "Nice"}, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode[handlers.ErrorResponse](t, rec).Error)

	rec = s.do(http.MethodPost, "/api/products/no-such-tee/reviews", handlers.ReviewRequest{Name: "Karim", Rating: 4, Comment: "Nice"}, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/products/classic-tee", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decode[handlers.ProductDetailResponse](t, rec)
	require.Len(t, detail.Reviews, 2)
	assert.Equal(t, 2, detail.ReviewCount)
	assert.Equal(t, "4.5", detail.AverageRating.String())
	assert.Equal(t, "<b>Great</b> fit", detail.Reviews[1].Comment)
}

func TestStorefrontCatalog(t *testing.T) {
	s := newTestServer(t, defaultRule())

	rec := s.do(http.MethodGet, "/api/products", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[handlers.ProductListResponse](t, rec)
	require.Len(t, list.Products, 1)

	rec = s.do(http.MethodGet, "/api/products/classic-tee", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.productID, decode[models.Product](t, rec).ID)

	rec = s.do(http.MethodPost, "/admin/products/"+s.productID+"/toggle", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/products/classic-tee", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/settings", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	pub := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "Test Tees", pub["brand"])
	assert.NotContains(t, pub, "maintenance")
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
