package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-order-service/internal/cache"
	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

const settingsKey = "settings"

// SettingsService serves the singleton settings document from a short-lived
// cache and seeds defaults the first time it is read.
type SettingsService struct {
	store repository.SettingsStore
	cache *cache.TTLCache[*models.Settings]
	brand string
}

func NewSettingsService(store repository.SettingsStore, ttl time.Duration, brand string) *SettingsService {
	return &SettingsService{
		store: store,
		cache: cache.NewTTLCache[*models.Settings](ttl),
		brand: brand,
	}
}

// Get returns a copy the caller may modify.
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	if st, ok := s.cache.Get(settingsKey); ok {
		return st.Clone(), nil
	}

	st, err := s.store.GetSettings(ctx)
	if errors.Is(err, models.ErrNotFound) {
		st = models.DefaultSettings(s.brand)
		if err := s.store.SaveSettings(ctx, st); err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "seeded default settings", "brand", s.brand)
	} else if err != nil {
		return nil, err
	}

	s.cache.Set(settingsKey, st.Clone())
	return st, nil
}

func (s *SettingsService) Save(ctx context.Context, st *models.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveSettings(ctx, st); err != nil {
		return err
	}
	s.cache.Delete(settingsKey)
	return nil
}

// SaveShipping replaces the shipping methods and free-shipping threshold,
// keeping the rest of the document.
func (s *SettingsService) SaveShipping(ctx context.Context, methods []models.ShippingMethod, threshold decimal.Decimal) (*models.Settings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	st.ShippingMethods = methods
	st.FreeShippingThreshold = threshold
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
