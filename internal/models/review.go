package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxReviewName    = 80
	maxReviewComment = 2000
)

// Review is a shopper's rating of a product. Name and Comment are plain
// text; clients escape them when rendering. Reviews are published as
// submitted.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Comment = strings.TrimSpace(r.Comment)
}

// Validate checks a submitted review. Call after Normalize.
func (r *Review) Validate() error {
	if r.Name == "" || r.Comment == "" {
		return Invalid("name and comment are required")
	}
	if utf8.RuneCountInString(r.Name) > maxReviewName {
		return Invalid("name is longer than %d characters", maxReviewName)
	}
	if utf8.RuneCountInString(r.Comment) > maxReviewComment {
		return Invalid("comment is longer than %d characters", maxReviewComment)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return Invalid("rating must be between 1 and 5")
	}
	return nil
}

// AverageRating is the mean rating to one decimal place, zero when there
// are no reviews.
func AverageRating(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
}
