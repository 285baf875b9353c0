// Package cart stores shopper carts by session id. A cart holds references
// (product, sku, qty) only; prices are resolved against the catalog when the
// cart is read.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

type Store interface {
	// Get returns the items in a session's cart. An unknown or expired
	// session has an empty cart, not an error.
	Get(ctx context.Context, sessionID string) ([]models.CartItem, error)
	Save(ctx context.Context, sessionID string, items []models.CartItem) error
	Clear(ctx context.Context, sessionID string) error
}

// Upsert sets qty for the (product, sku) pair, appending it when absent.
// A qty of zero or less removes the pair.
func Upsert(items []models.CartItem, item models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items)+1)
	found := false
	for _, it := range items {
		if it.ProductID == item.ProductID && it.SKU == item.SKU {
			found = true
			if item.Qty > 0 {
				out = append(out, item)
			}
			continue
		}
		out = append(out, it)
	}
	if !found && item.Qty > 0 {
		out = append(out, item)
	}
	return out
}

// Find returns the current qty of a pair, or 0.
func Find(items []models.CartItem, productID, sku string) int {
	for _, it := range items {
		if it.ProductID == productID && it.SKU == sku {
			return it.Qty
		}
	}
	return 0
}

type memCart struct {
	items   []models.CartItem
	expires time.Time
}

// MemoryStore keeps carts in process. Each write extends the TTL.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	carts map[string]memCart
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, carts: make(map[string]memCart)}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[sessionID]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && !s.now().Before(c.expires) {
		delete(s.carts, sessionID)
		return nil, nil
	}
	return append([]models.CartItem(nil), c.items...), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, items []models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(items) == 0 {
		delete(s.carts, sessionID)
		return nil
	}
	s.carts[sessionID] = memCart{
		items:   append([]models.CartItem(nil), items...),
		expires: s.now().Add(s.ttl),
	}
	s.sweep()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// sweep drops expired carts. Caller holds mu.
func (s *MemoryStore) sweep() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, c := range s.carts {
		if !now.Before(c.expires) {
			delete(s.carts, id)
		}
	}
}
