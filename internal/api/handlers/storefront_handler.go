package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/storefront-order-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-order-service/internal/assets"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/service"
)

// StorefrontHandler serves the shopper-facing API: catalog, cart, checkout
// and order tracking. Cart operations are keyed by the session cookie.
type StorefrontHandler struct {
	catalog  *service.CatalogService
	reviews  *service.ReviewService
	carts    *service.CartService
	pricer   *service.Pricer
	orders   *service.OrderService
	settings *service.SettingsService
	assets   *assets.Store
}

func NewStorefrontHandler(
	catalog *service.CatalogService,
	reviews *service.ReviewService,
	carts *service.CartService,
	pricer *service.Pricer,
	orders *service.OrderService,
	settings *service.SettingsService,
	store *assets.Store,
) *StorefrontHandler {
	return &StorefrontHandler{
		catalog:  catalog,
		reviews:  reviews,
		carts:    carts,
		pricer:   pricer,
		orders:   orders,
		settings: settings,
		assets:   store,
	}
}

// Settings handles GET /api/settings
func (h *StorefrontHandler) Settings(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Public())
}

// ListProducts handles GET /api/products?category=&tag=&q=
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.catalog.ListActive(r.Context(), models.ProductFilter{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Search:   q.Get("q"),
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, ProductListResponse{Products: products})
}

// GetProduct handles GET /api/products/{slug}
func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.catalog.GetActiveBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	reviews, err := h.reviews.List(ctx, p.ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductDetailResponse{
		Product:       *p,
		Reviews:       reviews,
		ReviewCount:   len(reviews),
		AverageRating: models.AverageRating(reviews),
	})
}

// AddReview handles POST /api/products/{slug}/reviews
func (h *StorefrontHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rv := &models.Review{Name: req.Name, Rating: req.Rating, Comment: req.Comment}
	if err := h.reviews.Add(r.Context(), chi.URLParam(r, "slug"), rv); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

// GetCart handles GET /api/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, http.StatusOK)
}

// AddToCart handles POST /api/cart/items
func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	ctx := r.Context()
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		if req.Color == "" || req.Size == "" {
			writeError(w, http.StatusBadRequest, "invalid_input", "sku or color and size are required")
			return
		}
		resolved, err := h.carts.ResolveSKU(ctx, req.ProductID, req.Color, req.Size)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		sku = resolved
	}

	if err := h.carts.Add(ctx, middleware.SessionID(ctx), req.ProductID, sku, req.Qty); err != nil {
		writeErr(w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusCreated)
}

// UpdateCartItem handles PUT /api/cart/items; qty 0 removes the item.
func (h *StorefrontHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	if err := h.carts.Update(ctx, middleware.SessionID(ctx), req.ProductID, req.SKU, req.Qty); err != nil {
		writeErr(w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

// RemoveCartItem handles DELETE /api/cart/items/{productID}/{sku}
func (h *StorefrontHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.carts.Remove(ctx, middleware.SessionID(ctx), chi.URLParam(r, "productID"), chi.URLParam(r, "sku"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.respondCart(w, r, http.StatusOK)
}

// ClearCart handles DELETE /api/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.carts.Clear(ctx, middleware.SessionID(ctx)); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote handles POST /api/cart/quote
func (h *StorefrontHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q, err := h.quote(r, req.CouponCode, req.ShippingMethod)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *StorefrontHandler) quote(r *http.Request, coupon, method string) (*models.Quote, error) {
	ctx := r.Context()
	lines, err := h.carts.Lines(ctx, middleware.SessionID(ctx))
	if err != nil {
		return nil, err
	}
	st, err := h.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return h.pricer.Quote(ctx, lines, coupon, method, st)
}

// Checkout handles POST /api/checkout. The cart is cleared once the order is
// stored.
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	sid := middleware.SessionID(ctx)

	if ref := req.Payment.Screenshot; ref != "" && !h.assets.Exists(ref) {
		writeError(w, http.StatusBadRequest, "invalid_input", "payment screenshot was not uploaded")
		return
	}

	lines, err := h.carts.CheckoutLines(ctx, sid)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	order, err := h.orders.CreateOrder(ctx, models.Checkout{
		Cart:       lines,
		Customer:   req.Customer,
		Shipping:   req.Shipping,
		Payment:    req.Payment,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if err := h.carts.Clear(ctx, sid); err != nil {
		slog.WarnContext(ctx, "clear cart after checkout", "order_id", order.OrderID, "error", err)
	}

	resp := CheckoutResponse{OrderID: order.OrderID, Status: order.Status, Amounts: order.Amounts}
	if st, err := h.settings.Get(ctx); err == nil {
		resp.VerificationSLAHours = st.VerificationSLAHours
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UploadPaymentProof handles POST /api/uploads/payment-proof (multipart,
// field "screenshot").
func (h *StorefrontHandler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	ref, err := saveUpload(w, r, h.assets, "screenshot")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Ref: ref, URL: "/uploads/" + ref})
}

// TrackOrder handles GET /api/orders/{id}/track?contact=
func (h *StorefrontHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	summary, err := h.orders.Track(r.Context(), id, r.URL.Query().Get("contact"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *StorefrontHandler) respondCart(w http.ResponseWriter, r *http.Request, status int) {
	ctx := r.Context()
	lines, err := h.carts.Lines(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	resp := CartResponse{Items: make([]CartLineResponse, 0, len(lines)), Subtotal: models.Subtotal(lines)}
	for _, l := range lines {
		item := CartLineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Slug:      l.Product.Slug,
			SKU:       l.Variant.SKU,
			Color:     l.Variant.Color,
			Size:      l.Variant.Size,
			Qty:       l.Qty,
			Stock:     l.Variant.Stock,
			UnitPrice: l.UnitPrice(),
			LineTotal: l.LineTotal(),
		}
		if len(l.Product.Images) > 0 {
			item.Image = l.Product.Images[0]
		}
		resp.Items = append(resp.Items, item)
	}
	writeJSON(w, status, resp)
}

// saveUpload stores the multipart file in field.
func saveUpload(w http.ResponseWriter, r *http.Request, store *assets.Store, field string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, store.MaxBytes()+1<<10)
	file, header, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", assets.ErrTooLarge
		}
		return "", models.Invalid("multipart field %q is required", field)
	}
	defer file.Close()
	return store.Save(header.Filename, file)
}
