package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

// ReviewService accepts shopper reviews for active products.
type ReviewService struct {
	products repository.Products
	reviews  repository.Reviews
	now      Clock
}

func NewReviewService(products repository.Products, reviews repository.Reviews, now Clock) *ReviewService {
	if now == nil {
		now = utcNow
	}
	return &ReviewService{products: products, reviews: reviews, now: now}
}

// Add stores r against the active product with the given slug. Drafts are
// reported as not found.
func (s *ReviewService) Add(ctx context.Context, slug string, r *models.Review) error {
	slug = strings.ToLower(strings.TrimSpace(slug))
	p, err := s.products.GetProductBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return fmt.Errorf("product %s: %w", slug, models.ErrNotFound)
	}

	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}
	r.ID = uuid.NewString()
	r.ProductID = p.ID
	r.CreatedAt = s.now()
	if err := s.reviews.AddReview(ctx, r); err != nil {
		return fmt.Errorf("review for %s: %w", slug, err)
	}
	return nil
}

// List returns a product's reviews, newest first.
func (s *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	reviews, err := s.reviews.ListReviews(ctx, productID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
