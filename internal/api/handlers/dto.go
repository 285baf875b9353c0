package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-order-service/internal/api/httpx"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// --- Shared ---

type ErrorResponse = httpx.ErrorResponse

// --- Storefront ---

type ProductListResponse struct {
	Products []models.Product `json:"products"`
}

// ProductDetailResponse is a product with its published reviews.
type ProductDetailResponse struct {
	models.Product
	Reviews       []models.Review `json:"reviews"`
	ReviewCount   int             `json:"review_count"`
	AverageRating decimal.Decimal `json:"average_rating"`
}

type ReviewRequest struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	// Either SKU or Color and Size identify the variant.
	SKU   string `json:"sku,omitempty"`
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
	Qty   int    `json:"qty"`
}

type UpdateCartItemRequest struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Qty       int    `json:"qty"`
}

type CartLineResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image,omitempty"`
	SKU       string          `json:"sku"`
	Color     string          `json:"color"`
	Size      string          `json:"size"`
	Qty       int             `json:"qty"`
	Stock     int             `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items    []CartLineResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

type QuoteRequest struct {
	CouponCode     string `json:"coupon_code"`
	ShippingMethod string `json:"shipping_method"`
}

type CheckoutRequest struct {
	Customer   models.Customer     `json:"customer"`
	Shipping   models.ShippingInfo `json:"shipping"`
	Payment    models.PaymentDraft `json:"payment"`
	CouponCode string              `json:"coupon_code"`
}

type CheckoutResponse struct {
	OrderID              int64          `json:"order_id"`
	Status               models.Status  `json:"status"`
	Amounts              models.Amounts `json:"amounts"`
	VerificationSLAHours int            `json:"verification_sla_hours"`
}

type UploadResponse struct {
	Ref string `json:"ref"`
	URL string `json:"url"`
}

// --- Coupons ---

type CreateCouponRequest struct {
	CouponCode    string          `json:"coupon_code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	UsageLimit    *int            `json:"usage_limit,omitempty"`
	ExpiryDate    string          `json:"expiry_date,omitempty"` // RFC3339
	Active        *bool           `json:"active,omitempty"`      // defaults to true
}

type ValidateRequestBody struct {
	CouponCode     string `json:"coupon_code"`
	ShippingMethod string `json:"shipping_method,omitempty"`
}

type ValidateResponse struct {
	IsValid  bool             `json:"is_valid"`
	Code     string           `json:"code,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`
	Message  string           `json:"message"`
}

type ApplicableResponse struct {
	ApplicableCoupons []string `json:"applicable_coupons"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

// --- Admin ---

type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type VerifyRequest struct {
	Decision models.Decision `json:"decision"`
	Reason   string          `json:"reason"`
}

type StatusRequest struct {
	Status models.Status `json:"status"`
	Note   string        `json:"note"`
}

type HistoryEntryResponse struct {
	From    models.Status `json:"from,omitempty"`
	To      models.Status `json:"to"`
	Note    string        `json:"note,omitempty"`
	Actor   string        `json:"actor"`
	TraceID string        `json:"trace_id,omitempty"`
	At      time.Time     `json:"at"`
}

type ShippingRequest struct {
	Methods               []models.ShippingMethod `json:"shipping_methods"`
	FreeShippingThreshold decimal.Decimal         `json:"free_shipping_threshold"`
}

type StatusToggleResponse struct {
	Status models.ProductStatus `json:"status"`
}
