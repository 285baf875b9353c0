package cart

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

func TestUpsert(t *testing.T) {
	var items []models.CartItem
	items = Upsert(items, models.CartItem{ProductID: "p1", SKU: "A", Qty: 1})
	items = Upsert(items, models.CartItem{ProductID: "p1", SKU: "B", Qty: 2})
	items = Upsert(items, models.CartItem{ProductID: "p1", SKU: "A", Qty: 3})
	require.Len(t, items, 2)
	assert.Equal(t, 3, Find(items, "p1", "A"))
	assert.Equal(t, 2, Find(items, "p1", "B"))

	items = Upsert(items, models.CartItem{ProductID: "p1", SKU: "A", Qty: 0})
	require.Len(t, items, 1)
	assert.Equal(t, 0, Find(items, "p1", "A"))
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	items := []models.CartItem{{ProductID: "p1", SKU: "A", Qty: 1}}
	require.NoError(t, s.Save(ctx, "sess", items))

	got, err := s.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, items, got)

	got[0].Qty = 42
	again, _ := s.Get(ctx, "sess")
	assert.Equal(t, 1, again[0].Qty)

	now = now.Add(time.Hour)
	got, err = s.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	require.NoError(t, s.Save(ctx, "sess", []models.CartItem{{ProductID: "p1", SKU: "A", Qty: 1}}))
	require.NoError(t, s.Clear(ctx, "sess"))
	got, err := s.Get(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Runs only when a Redis server is reachable at REDIS_ADDR.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, "storefront-test", time.Minute)
	sess := uuid.NewString()

	got, err := s.Get(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, got)

	items := []models.CartItem{{ProductID: "p1", SKU: "A", Qty: 2}}
	require.NoError(t, s.Save(ctx, sess, items))
	got, err = s.Get(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, items, got)

	require.NoError(t, s.Clear(ctx, sess))
	got, err = s.Get(ctx, sess)
	require.NoError(t, err)
	assert.Empty(t, got)
}
