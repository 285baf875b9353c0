package repository

import (
	"context"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// Products is the catalog store.
type Products interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	SetProductStatus(ctx context.Context, id string, status models.ProductStatus) error
}

// Coupons is the coupon store. Codes are stored normalized (upper case).
type Coupons interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	CreateCoupon(ctx context.Context, c *models.Coupon) error
	UpdateCoupon(ctx context.Context, c *models.Coupon) error
	SetCouponActive(ctx context.Context, code string, active bool) error
	DeleteCoupon(ctx context.Context, code string) error
}

// Orders is the read side of the order store. Writes go through Tx.
type Orders interface {
	GetOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
}

// Reviews stores shopper reviews of products.
type Reviews interface {
	AddReview(ctx context.Context, r *models.Review) error
	// ListReviews returns a product's reviews, newest first.
	ListReviews(ctx context.Context, productID string) ([]models.Review, error)
}

// SettingsStore holds the singleton settings document.
type SettingsStore interface {
	// GetSettings returns models.ErrNotFound when nothing was saved yet.
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, s *models.Settings) error
}

// Tx is the unit of work for order placement and status changes. Every
// mutation on it is atomic on its own and all of them commit or roll back
// together.
type Tx interface {
	// NextOrderID draws from a shared strictly increasing sequence. Values
	// are not returned on rollback, so gaps are possible.
	NextOrderID(ctx context.Context) (int64, error)

	// DecrementStock removes qty from a variant if and only if at least qty
	// is on hand. It returns *models.InsufficientStockError otherwise; a
	// variant that no longer exists reports zero available.
	DecrementStock(ctx context.Context, productID, sku string, qty int) error

	// RestoreStock puts qty back on a variant. models.ErrNotFound when the
	// product or variant no longer exists.
	RestoreStock(ctx context.Context, productID, sku string, qty int) error

	// IncrementCouponUsage bumps used_count if the coupon is still active,
	// unexpired at now and below its usage limit at the moment of the write.
	IncrementCouponUsage(ctx context.Context, code string, now time.Time) error

	// ReleaseCouponUsage decrements used_count, never below zero.
	// models.ErrNotFound when the coupon was deleted.
	ReleaseCouponUsage(ctx context.Context, code string) error

	InsertOrder(ctx context.Context, o *models.Order) error

	// GetOrderForUpdate reads an order and holds it against concurrent
	// status changes until the transaction ends.
	GetOrderForUpdate(ctx context.Context, orderID int64) (*models.Order, error)

	UpdateOrder(ctx context.Context, o *models.Order) error
}

// Store is everything the services need from persistence.
type Store interface {
	Products
	Coupons
	Orders
	Reviews
	SettingsStore

	// InTx runs fn in a transaction. A non-nil error from fn rolls back.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}
