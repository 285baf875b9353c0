package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

type CatalogService struct {
	products repository.Products
	now      Clock
}

func NewCatalogService(products repository.Products, now Clock) *CatalogService {
	if now == nil {
		now = utcNow
	}
	return &CatalogService{products: products, now: now}
}

// ListActive is the storefront listing: only active products are visible.
func (s *CatalogService) ListActive(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	f.Status = models.ProductActive
	return s.products.ListProducts(ctx, f)
}

// GetActiveBySlug hides drafts behind the same not-found as missing slugs.
func (s *CatalogService) GetActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.products.GetProductBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, fmt.Errorf("product %s: %w", slug, models.ErrNotFound)
	}
	return p, nil
}

func (s *CatalogService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	return s.products.ListProducts(ctx, f)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetProduct(ctx, id)
}

// Create assigns an id, derives slug and SKUs, and stores the product.
func (s *CatalogService) Create(ctx context.Context, p *models.Product) error {
	p.ID = uuid.NewString()
	for i := range p.Variants {
		p.Variants[i].SKU = ""
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return slugConflict(p.Slug, err)
	}
	return nil
}

// Update replaces product id's definition, variants and stock included.
func (s *CatalogService) Update(ctx context.Context, id string, p *models.Product) error {
	existing, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if p.Slug == "" && p.Name == existing.Name {
		p.Slug = existing.Slug
	}
	p.CarrySKUs(existing)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return slugConflict(p.Slug, err)
	}
	return nil
}

func (s *CatalogService) SetStatus(ctx context.Context, id string, status models.ProductStatus) error {
	if !status.Valid() {
		return models.Invalid("unknown product status %q", status)
	}
	return s.products.SetProductStatus(ctx, id, status)
}

// ToggleStatus flips a product between active and draft.
func (s *CatalogService) ToggleStatus(ctx context.Context, id string) (models.ProductStatus, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return "", err
	}
	next := models.ProductActive
	if p.IsActive() {
		next = models.ProductDraft
	}
	if err := s.products.SetProductStatus(ctx, id, next); err != nil {
		return "", err
	}
	return next, nil
}

func slugConflict(slug string, err error) error {
	if errors.Is(err, models.ErrConflict) {
		return fmt.Errorf("slug %q is already in use: %w", slug, err)
	}
	return err
}
