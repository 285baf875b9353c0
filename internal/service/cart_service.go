package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Cheertaboi/storefront-order-service/internal/cart"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

// CartService edits a session's cart and resolves it against the live
// catalog.
type CartService struct {
	carts    cart.Store
	products repository.Products
}

func NewCartService(carts cart.Store, products repository.Products) *CartService {
	return &CartService{carts: carts, products: products}
}

// Lines resolves the stored items. Items whose product was removed or
// unpublished, or whose variant no longer exists, are dropped.
func (s *CartService) Lines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	lines, _, err := s.resolve(ctx, sessionID)
	return lines, err
}

// CheckoutLines resolves the cart for placing an order. Unlike Lines it
// fails with ErrProductUnavailable when any stored item can no longer be
// bought.
func (s *CartService) CheckoutLines(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	lines, stored, err := s.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(lines) < stored {
		return nil, fmt.Errorf("%d cart item(s) no longer available: %w", stored-len(lines), models.ErrProductUnavailable)
	}
	return lines, nil
}

func (s *CartService) resolve(ctx context.Context, sessionID string) ([]models.CartLine, int, error) {
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	lines := make([]models.CartLine, 0, len(items))
	for _, it := range items {
		p, err := s.products.GetProduct(ctx, it.ProductID)
		if errors.Is(err, models.ErrNotFound) {
			slog.DebugContext(ctx, "dropping cart item for missing product", "product_id", it.ProductID)
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		if !p.IsActive() {
			continue
		}
		v, ok := p.Variant(it.SKU)
		if !ok {
			continue
		}
		lines = append(lines, models.CartLine{Product: *p, Variant: *v, Qty: it.Qty})
	}
	return lines, len(items), nil
}

// Add puts qty more of a variant in the cart.
func (s *CartService) Add(ctx context.Context, sessionID, productID, sku string, qty int) error {
	if qty <= 0 {
		return models.Invalid("quantity must be positive")
	}
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	total := cart.Find(items, productID, sku) + qty
	if err := s.checkVariant(ctx, productID, sku, total); err != nil {
		return err
	}
	return s.carts.Save(ctx, sessionID, cart.Upsert(items, models.CartItem{ProductID: productID, SKU: sku, Qty: total}))
}

// Update sets the quantity of a variant; zero or less removes it.
func (s *CartService) Update(ctx context.Context, sessionID, productID, sku string, qty int) error {
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if qty > 0 {
		if err := s.checkVariant(ctx, productID, sku, qty); err != nil {
			return err
		}
	}
	return s.carts.Save(ctx, sessionID, cart.Upsert(items, models.CartItem{ProductID: productID, SKU: sku, Qty: qty}))
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID, sku string) error {
	return s.Update(ctx, sessionID, productID, sku, 0)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.Clear(ctx, sessionID)
}

// ResolveSKU finds the SKU for a color and size of a product.
func (s *CartService) ResolveSKU(ctx context.Context, productID, color, size string) (string, error) {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	v, ok := p.VariantByOption(color, size)
	if !ok {
		return "", fmt.Errorf("variant %s/%s: %w", color, size, models.ErrNotFound)
	}
	return v.SKU, nil
}

func (s *CartService) checkVariant(ctx context.Context, productID, sku string, qty int) error {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return models.ErrProductUnavailable
	}
	v, ok := p.Variant(sku)
	if !ok {
		return fmt.Errorf("variant %s: %w", sku, models.ErrNotFound)
	}
	if qty > v.Stock {
		return &models.InsufficientStockError{SKU: sku, Requested: qty, Available: v.Stock}
	}
	return nil
}
