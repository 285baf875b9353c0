package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Cheertaboi/storefront-order-service/internal/api/handlers"
	"github.com/Cheertaboi/storefront-order-service/internal/api/middleware"
	"github.com/Cheertaboi/storefront-order-service/internal/assets"
	"github.com/Cheertaboi/storefront-order-service/internal/ratelimit"
	"github.com/Cheertaboi/storefront-order-service/internal/service"
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router exposes.
type Deps struct {
	Store    Pinger
	Catalog  *service.CatalogService
	Reviews  *service.ReviewService
	Carts    *service.CartService
	Pricer   *service.Pricer
	Orders   *service.OrderService
	Coupons  *service.CouponService
	Settings *service.SettingsService
	Reports  *service.ReportService
	Assets   *assets.Store
	// Limiter guards checkout, reviews, tracking and uploads.
	Limiter ratelimit.Limiter

	AdminUser     string
	AdminPassword string
	SecureCookies bool
	// TrustProxy mounts RealIP so rate limits key on the forwarded client
	// address. Leave off unless a proxy sets those headers.
	TrustProxy bool
}

// NewRouter builds the HTTP router for the storefront service
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	storefront := handlers.NewStorefrontHandler(d.Catalog, d.Reviews, d.Carts, d.Pricer, d.Orders, d.Settings, d.Assets)
	couponHandler := handlers.NewCouponHandler(d.Coupons, d.Carts, d.Pricer, d.Settings)
	admin := handlers.NewAdminHandler(d.Catalog, d.Orders, d.Settings, d.Reports, d.Assets)
	limited := ratelimit.Middleware(d.Limiter)

	// Public storefront endpoints
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Maintenance(d.Settings))
		r.Use(middleware.Session(d.SecureCookies))

		r.Get("/settings", storefront.Settings)
		r.Get("/products", storefront.ListProducts)
		r.Get("/products/{slug}", storefront.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", storefront.GetCart)
			r.Delete("/", storefront.ClearCart)
			r.Post("/items", storefront.AddToCart)
			r.Put("/items", storefront.UpdateCartItem)
			r.Delete("/items/{productID}/{sku}", storefront.RemoveCartItem)
			r.Post("/quote", storefront.Quote)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/applicable", couponHandler.GetApplicableCoupons)
			r.Post("/validate", couponHandler.ValidateCoupon)
		})

		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/checkout", storefront.Checkout)
			r.Post("/products/{slug}/reviews", storefront.AddReview)
			r.Post("/uploads/payment-proof", storefront.UploadPaymentProof)
			r.Get("/orders/{id}/track", storefront.TrackOrder)
		})
	})

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(chimw.BasicAuth("admin", map[string]string{d.AdminUser: d.AdminPassword}))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", admin.ListProducts)
			r.Post("/", admin.CreateProduct)
			r.Get("/{id}", admin.GetProduct)
			r.Put("/{id}", admin.UpdateProduct)
			r.Post("/{id}/toggle", admin.ToggleProduct)
		})
		r.Post("/uploads", admin.UploadImage)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", admin.ListOrders)
			r.Get("/export.csv", admin.ExportOrders)
			r.Get("/{id}", admin.GetOrder)
			r.Get("/{id}/history", admin.OrderHistory)
			r.Post("/{id}/verify", admin.VerifyPayment)
			r.Post("/{id}/status", admin.AdvanceStatus)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", couponHandler.ListCoupons)
			r.Post("/", couponHandler.CreateCoupon)
			r.Get("/{code}", couponHandler.GetCoupon)
			r.Put("/{code}", couponHandler.UpdateCoupon)
			r.Delete("/{code}", couponHandler.DeleteCoupon)
			r.Post("/{code}/active", couponHandler.SetCouponActive)
		})

		r.Get("/customers", admin.ListCustomers)
		r.Get("/customers/export.csv", admin.ExportCustomers)

		r.Get("/settings", admin.GetSettings)
		r.Put("/settings", admin.SaveSettings)
		r.Put("/settings/shipping", admin.SaveShipping)
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Assets.Dir()))))

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
