package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

func TestReviewAddAndList(t *testing.T) {
	f := newFixture(t)
	reviews := NewReviewService(f.store, f.store, f.clock.Now)

	first := &models.Review{Name: "  Rahim ", Rating: 4, Comment: "Fits well"}
	require.NoError(t, reviews.Add(f.ctx, " Classic-Tee ", first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, productID, first.ProductID)
	assert.Equal(t, "Rahim", first.Name)
	assert.False(t, first.CreatedAt.IsZero())

	second := &models.Review{Name: "Karim", Rating: 5, Comment: "Soft cotton"}
	require.NoError(t, reviews.Add(f.ctx, "classic-tee", second))

	got, err := reviews.List(f.ctx, productID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
	assert.Equal(t, "4.5", models.AverageRating(got).String())
}

func TestReviewListEmpty(t *testing.T) {
	f := newFixture(t)
	reviews := NewReviewService(f.store, f.store, f.clock.Now)

	got, err := reviews.List(f.ctx, productID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReviewAddRejects(t *testing.T) {
	f := newFixture(t)
	reviews := NewReviewService(f.store, f.store, f.clock.Now)
	require.NoError(t, f.store.SetProductStatus(f.ctx, productID, models.ProductDraft))

	err := reviews.Add(f.ctx, "classic-tee", &models.Review{Name: "A", Rating: 5, Comment: "ok"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = reviews.Add(f.ctx, "no-such-tee", &models.Review{Name: "A", Rating: 5, Comment: "ok"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, f.store.SetProductStatus(f.ctx, productID, models.ProductActive))
	err = reviews.Add(f.ctx, "classic-tee", &models.Review{Name: "A", Rating: 9, Comment: "ok"})
	assert.Equal(t, models.KindValidation, models.KindOf(err))

	got, err := reviews.List(f.ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, got)
}
