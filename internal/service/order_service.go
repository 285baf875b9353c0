package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/orderlog"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

// OrderService places orders and moves them through the status lifecycle.
// Each operation runs in one store transaction: placement commits stock,
// coupon usage and the order together, and cancellation or refund hands
// stock and coupon usage back in the same write as the status change.
type OrderService struct {
	store    repository.Store
	pricer   *Pricer
	settings *SettingsService
	timeline orderlog.Repository // optional
	now      Clock
}

func NewOrderService(store repository.Store, pricer *Pricer, settings *SettingsService, timeline orderlog.Repository, now Clock) *OrderService {
	if now == nil {
		now = utcNow
	}
	return &OrderService{
		store:    store,
		pricer:   pricer,
		settings: settings,
		timeline: timeline,
		now:      now,
	}
}

// CreateOrder re-prices the cart, commits stock and coupon usage, and stores
// the order in pending_verification. On any error nothing is committed,
// though the order id drawn for the attempt is not reused.
func (s *OrderService) CreateOrder(ctx context.Context, in models.Checkout) (_ *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer func() { endSpan(span, err) }()

	if len(in.Cart) == 0 {
		return nil, models.ErrEmptyCart
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	for _, l := range in.Cart {
		if l.Qty <= 0 {
			return nil, models.Invalid("quantity for %s must be positive", l.Variant.SKU)
		}
		if !l.Product.IsActive() {
			return nil, fmt.Errorf("%s: %w", l.Product.Name, models.ErrProductUnavailable)
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	quote, err := s.pricer.Quote(ctx, in.Cart, in.CouponCode, in.Shipping.Method, settings)
	if err != nil {
		return nil, err
	}
	if err := checkStock(in.Cart); err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		Lines:      snapshotLines(in.Cart),
		Amounts:    quote.Amounts(),
		CouponCode: quote.CouponCode,
		Customer:   in.Customer,
		Shipping:   in.Shipping,
		Payment:    models.Payment{PaymentDraft: in.Payment},
		Status:     models.StatusPendingVerification,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	order.Shipping.Method = quote.ShippingMethod

	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		id, err := tx.NextOrderID(ctx)
		if err != nil {
			return err
		}
		order.OrderID = id

		for _, l := range lockOrder(order.Lines) {
			if err := tx.DecrementStock(ctx, l.ProductID, l.SKU, l.Qty); err != nil {
				return err
			}
		}
		if order.CouponCode != "" {
			if err := tx.IncrementCouponUsage(ctx, order.CouponCode, now); err != nil {
				return err
			}
		}
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.OrderID))
	slog.InfoContext(ctx, "order placed",
		"order_id", order.OrderID,
		"total", order.Amounts.Total.StringFixed(2),
		"coupon", order.CouponCode,
		"payment_method", order.Payment.Method,
	)
	s.record(ctx, order.OrderID, "", order.Status, orderlog.ActorCustomer, "")
	return order, nil
}

// VerifyPayment applies an admin's decision on the submitted payment. Accept
// moves the order to verified. Reject keeps it pending and appends reason to
// the notes for a second review. Either way the order must still be pending.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID int64, decision models.Decision, reason string) (_ *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.VerifyPayment")
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("decision", string(decision)))
	defer func() { endSpan(span, err) }()

	if decision != models.DecisionAccept && decision != models.DecisionReject {
		return nil, models.Invalid("decision must be accept or reject")
	}

	var order *models.Order
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != models.StatusPendingVerification {
			return models.ErrAlreadyVerified
		}

		now := s.now()
		if decision == models.DecisionAccept {
			o.Status = models.StatusVerified
			markVerified(o, now)
			o.AppendNote(reason)
		} else {
			note := "Payment rejected"
			if reason != "" {
				note += ": " + reason
			}
			o.AppendNote(note)
		}
		o.UpdatedAt = now
		order = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "payment reviewed", "order_id", orderID, "decision", decision)
	s.record(ctx, orderID, models.StatusPendingVerification, order.Status, orderlog.ActorAdmin, reason)
	return order, nil
}

// skipped is a reversal step that could not run because the referenced
// record is gone.
type skipped struct {
	kind string
	ref  string
}

// AdvanceStatus moves an order along the transition table. Moving into
// canceled or refunded restores the stock taken at placement and releases
// the coupon use; a product or coupon deleted since is skipped with a
// warning rather than failing the transition.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID int64, next models.Status, note string) (_ *models.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.AdvanceStatus")
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("status", string(next)))
	defer func() { endSpan(span, err) }()

	if !next.Valid() {
		return nil, models.Invalid("unknown status %q", next)
	}

	var (
		order *models.Order
		from  models.Status
		skips []skipped
	)
	err = s.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		skips = nil
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status
		if !from.CanTransition(next) {
			return &models.InvalidTransitionError{From: from, To: next}
		}

		now := s.now()
		if next == models.StatusVerified {
			markVerified(o, now)
		}
		if next.ReleasesInventory() {
			for _, l := range lockOrder(o.Lines) {
				err := tx.RestoreStock(ctx, l.ProductID, l.SKU, l.Qty)
				if errors.Is(err, models.ErrNotFound) {
					skips = append(skips, skipped{kind: "stock", ref: l.SKU})
					continue
				}
				if err != nil {
					return err
				}
			}
			if o.CouponCode != "" {
				err := tx.ReleaseCouponUsage(ctx, o.CouponCode)
				if errors.Is(err, models.ErrNotFound) {
					skips = append(skips, skipped{kind: "coupon", ref: o.CouponCode})
				} else if err != nil {
					return err
				}
			}
		}

		o.Status = next
		o.AppendNote(note)
		o.UpdatedAt = now
		order = o
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	for _, sk := range skips {
		slog.WarnContext(ctx, "reversal skipped, referenced record no longer exists",
			"order_id", orderID, "kind", sk.kind, "ref", sk.ref)
	}
	slog.InfoContext(ctx, "order status changed", "order_id", orderID, "from", from, "to", next)
	s.record(ctx, orderID, from, next, orderlog.ActorAdmin, note)
	return order, nil
}

// Track looks an order up for its owner. A wrong contact gets the same
// not-found as a missing order so ids cannot be enumerated.
func (s *OrderService) Track(ctx context.Context, orderID int64, contact string) (_ *models.OrderSummary, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.Track")
	span.SetAttributes(attribute.Int64("order.id", orderID))
	defer func() { endSpan(span, err) }()

	o, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(contact) {
		return nil, fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}

	summary := o.Summary()
	if entries, err := s.History(ctx, orderID); err == nil {
		summary.Timeline = orderlog.Events(entries)
	} else {
		slog.WarnContext(ctx, "order timeline unavailable", "order_id", orderID, "error", err)
	}
	return &summary, nil
}

func (s *OrderService) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

func (s *OrderService) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, models.Invalid("unknown status %q", f.Status)
	}
	return s.store.ListOrders(ctx, f)
}

// History returns the status timeline, empty when no timeline is configured.
func (s *OrderService) History(ctx context.Context, orderID int64) ([]orderlog.Entry, error) {
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.History(ctx, orderID)
}

// record appends to the timeline. The order row is the source of truth, so
// a failed append is only logged.
func (s *OrderService) record(ctx context.Context, orderID int64, from, to models.Status, actor, note string) {
	if s.timeline == nil {
		return
	}
	if err := s.timeline.Append(ctx, orderlog.NewEntry(ctx, orderID, from, to, actor, note)); err != nil {
		slog.ErrorContext(ctx, "append order timeline", "order_id", orderID, "error", err)
	}
}

func markVerified(o *models.Order, now time.Time) {
	at := now
	o.Payment.Verified = true
	o.Payment.VerifiedAt = &at
}

// checkStock fails fast on the cart's view of stock. The conditional
// decrement inside the transaction is what actually guards against
// overselling.
func checkStock(lines []models.CartLine) error {
	type key struct{ product, sku string }
	want := make(map[key]int, len(lines))
	for _, l := range lines {
		want[key{l.Product.ID, l.Variant.SKU}] += l.Qty
	}
	for _, l := range lines {
		n := want[key{l.Product.ID, l.Variant.SKU}]
		if n > l.Variant.Stock {
			return &models.InsufficientStockError{SKU: l.Variant.SKU, Requested: n, Available: l.Variant.Stock}
		}
	}
	return nil
}

// lockOrder returns lines sorted by product and SKU. Stock rows are always
// touched in this order so two checkouts sharing variants cannot deadlock.
func lockOrder(lines []models.OrderLine) []models.OrderLine {
	out := slices.Clone(lines)
	slices.SortFunc(out, func(a, b models.OrderLine) int {
		return cmp.Or(cmp.Compare(a.ProductID, b.ProductID), cmp.Compare(a.SKU, b.SKU))
	})
	return out
}

// snapshotLines copies what the order needs from the catalog so later
// catalog edits never change it.
func snapshotLines(lines []models.CartLine) []models.OrderLine {
	out := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		ol := models.OrderLine{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Slug:        l.Product.Slug,
			SKU:         l.Variant.SKU,
			Color:       l.Variant.Color,
			Size:        l.Variant.Size,
			Qty:         l.Qty,
			UnitPrice:   l.UnitPrice(),
		}
		if len(l.Product.Images) > 0 {
			ol.Image = l.Product.Images[0]
		}
		out = append(out, ol)
	}
	return out
}
