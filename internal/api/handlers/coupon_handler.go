package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Cheertaboi/storefront-order-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/service"
)

// --- Handler struct & constructor ---

type CouponHandler struct {
	coupons  *service.CouponService
	carts    *service.CartService
	pricer   *service.Pricer
	settings *service.SettingsService
}

func NewCouponHandler(coupons *service.CouponService, carts *service.CartService, pricer *service.Pricer, settings *service.SettingsService) *CouponHandler {
	return &CouponHandler{
		coupons:  coupons,
		carts:    carts,
		pricer:   pricer,
		settings: settings,
	}
}

func (req CreateCouponRequest) toCoupon() (*models.Coupon, error) {
	expiry, err := parseTimeOrEmpty(req.ExpiryDate)
	if err != nil {
		return nil, models.Invalid("invalid expiry_date; use RFC3339")
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &models.Coupon{
		Code:       req.CouponCode,
		Type:       models.CouponType(req.DiscountType),
		Value:      req.DiscountValue,
		MinOrder:   req.MinOrderValue,
		UsageLimit: req.UsageLimit,
		ExpiresAt:  expiry,
		Active:     active,
	}, nil
}

// --- Storefront ---

// ValidateCoupon handles POST /api/coupons/validate against the session cart.
// A coupon that does not apply is a normal answer, not an error.
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequestBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CouponCode) == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "coupon_code is required")
		return
	}

	ctx := r.Context()
	lines, err := h.carts.Lines(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	st, err := h.settings.Get(ctx)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	method := req.ShippingMethod
	if method == "" && len(st.ShippingMethods) > 0 {
		method = st.ShippingMethods[0].Name
	}

	q, err := h.pricer.Quote(ctx, lines, req.CouponCode, method, st)
	if err != nil {
		kind := models.KindOf(err)
		if kind == models.KindBusinessRule || errors.Is(err, models.ErrMalformedCoupon) {
			writeJSON(w, http.StatusOK, ValidateResponse{
				IsValid: false,
				Code:    models.CodeOf(err),
				Message: err.Error(),
			})
			return
		}
		writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ValidateResponse{
		IsValid:  true,
		Code:     q.CouponCode,
		Discount: &q.Discount,
		Total:    &q.Total,
		Message:  "coupon applied",
	})
}

// GetApplicableCoupons handles GET /api/coupons/applicable for the session
// cart's subtotal.
func (h *CouponHandler) GetApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lines, err := h.carts.Lines(ctx, middleware.SessionID(ctx))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	coupons, err := h.coupons.Applicable(ctx, models.Subtotal(lines))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	applicable := []string{}
	for _, c := range coupons {
		applicable = append(applicable, c.Code)
	}
	writeJSON(w, http.StatusOK, ApplicableResponse{ApplicableCoupons: applicable})
}

// --- Admin ---

// ListCoupons handles GET /admin/coupons
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	writeJSON(w, http.StatusOK, coupons)
}

// CreateCoupon handles POST /admin/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := req.toCoupon()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.coupons.Create(r.Context(), c); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GetCoupon handles GET /admin/coupons/{code}
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateCoupon handles PUT /admin/coupons/{code}. The code in the body, if
// any, is ignored.
func (h *CouponHandler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CreateCouponRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := req.toCoupon()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ctx := r.Context()
	if err := h.coupons.Update(ctx, chi.URLParam(r, "code"), c); err != nil {
		writeErr(w, r, err)
		return
	}
	updated, err := h.coupons.Get(ctx, c.Code)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// SetCouponActive handles POST /admin/coupons/{code}/active
func (h *CouponHandler) SetCouponActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.coupons.SetActive(r.Context(), chi.URLParam(r, "code"), req.Active); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCoupon handles DELETE /admin/coupons/{code}
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
