// Package memstore is an in-process repository.Store. It backs the service
// tests and the single-node demo mode; transactions are serialized and roll
// back by restoring a snapshot.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

type state struct {
	products map[string]*models.Product
	coupons  map[string]*models.Coupon
	orders   map[int64]*models.Order
	reviews  map[string][]models.Review // by product id, oldest first
	settings *models.Settings
}

type Store struct {
	mu     sync.RWMutex
	st     state
	nextID int64 // survives rollback, like a database sequence

	// FailNext, when set, is returned by the next InTx before fn runs.
	// Tests use it to simulate an unreachable store.
	FailNext error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: state{
		products: make(map[string]*models.Product),
		coupons:  make(map[string]*models.Coupon),
		orders:   make(map[int64]*models.Order),
		reviews:  make(map[string][]models.Review),
	}}
}

// SetNextOrderID makes the next drawn order id equal to id. Lower values
// than already issued are ignored.
func (s *Store) SetNextOrderID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id-1 > s.nextID {
		s.nextID = id - 1
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return &models.StorageUnavailableError{Op: "begin tx", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNext; err != nil {
		s.FailNext = nil
		return &models.StorageUnavailableError{Op: "begin tx", Err: err}
	}

	snapshot := s.st.clone()
	if err := fn(ctx, &memTx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Products

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil, fmt.Errorf("get product: %w", models.ErrNotFound)
	}
	return cloneProduct(p), nil
}

func (s *Store) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.st.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, fmt.Errorf("get product by slug: %w", models.ErrNotFound)
}

func (s *Store) ListProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	tag := strings.ToLower(f.Tag)
	var out []models.Product
	for _, p := range s.st.products {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if tag != "" && !contains(p.Tags, tag) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, *cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[p.ID]; ok {
		return fmt.Errorf("create product: %w", models.ErrConflict)
	}
	if s.slugTaken(p.Slug, p.ID) {
		return fmt.Errorf("create product: %w", models.ErrConflict)
	}
	s.st.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[p.ID]; !ok {
		return fmt.Errorf("update product: %w", models.ErrNotFound)
	}
	if s.slugTaken(p.Slug, p.ID) {
		return fmt.Errorf("update product: %w", models.ErrConflict)
	}
	s.st.products[p.ID] = cloneProduct(p)
	return nil
}

func (s *Store) SetProductStatus(_ context.Context, id string, status models.ProductStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return fmt.Errorf("set product status: %w", models.ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) slugTaken(slug, exceptID string) bool {
	for id, p := range s.st.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

// Coupons

func (s *Store) GetCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.st.coupons[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("get coupon: %w", models.ErrNotFound)
	}
	return cloneCoupon(c), nil
}

func (s *Store) ListCoupons(context.Context) ([]models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Coupon, 0, len(s.st.coupons))
	for _, c := range s.st.coupons {
		out = append(out, *cloneCoupon(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateCoupon(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.coupons[c.Code]; ok {
		return fmt.Errorf("create coupon: %w", models.ErrConflict)
	}
	s.st.coupons[c.Code] = cloneCoupon(c)
	return nil
}

// UpdateCoupon replaces the definition but keeps the stored used count.
func (s *Store) UpdateCoupon(_ context.Context, c *models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.st.coupons[c.Code]
	if !ok {
		return fmt.Errorf("update coupon: %w", models.ErrNotFound)
	}
	next := cloneCoupon(c)
	next.UsedCount = old.UsedCount
	next.CreatedAt = old.CreatedAt
	s.st.coupons[c.Code] = next
	return nil
}

func (s *Store) SetCouponActive(_ context.Context, code string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.coupons[code]
	if !ok {
		return fmt.Errorf("set coupon active: %w", models.ErrNotFound)
	}
	c.Active = active
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteCoupon(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.coupons[code]; !ok {
		return fmt.Errorf("delete coupon: %w", models.ErrNotFound)
	}
	delete(s.st.coupons, code)
	return nil
}

// Orders

func (s *Store) GetOrder(_ context.Context, orderID int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.st.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("get order: %w", models.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	searchID, idErr := strconv.ParseInt(search, 10, 64)
	var out []models.Order
	for _, o := range s.st.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if search != "" {
			match := strings.ToLower(o.Customer.Email) == search || strings.ToLower(o.Customer.Phone) == search
			if idErr == nil && o.OrderID == searchID {
				match = true
			}
			if !match {
				continue
			}
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID > out[j].OrderID })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

// Reviews

func (s *Store) AddReview(_ context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.products[r.ProductID]; !ok {
		return fmt.Errorf("add review: product %s: %w", r.ProductID, models.ErrNotFound)
	}
	for _, existing := range s.st.reviews[r.ProductID] {
		if existing.ID == r.ID {
			return fmt.Errorf("add review %s: %w", r.ID, models.ErrConflict)
		}
	}
	s.st.reviews[r.ProductID] = append(s.st.reviews[r.ProductID], *r)
	return nil
}

func (s *Store) ListReviews(_ context.Context, productID string) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.st.reviews[productID]
	out := make([]models.Review, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Settings

func (s *Store) GetSettings(context.Context) (*models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.st.settings == nil {
		return nil, fmt.Errorf("get settings: %w", models.ErrNotFound)
	}
	return cloneSettings(s.st.settings), nil
}

func (s *Store) SaveSettings(_ context.Context, st *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.settings = cloneSettings(st)
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
