package repository

import (
	"context"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

func (r *Postgres) AddReview(ctx context.Context, rv *models.Review) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rv.ID, rv.ProductID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt)
	return classify("add review", err)
}

func (r *Postgres) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, name, rating, comment, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY created_at DESC, id`, productID)
	if err != nil {
		return nil, classify("list reviews", err)
	}
	defer rows.Close()

	var out []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, classify("list reviews", err)
		}
		out = append(out, rv)
	}
	return out, classify("list reviews", rows.Err())
}
