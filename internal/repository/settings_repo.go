package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

const settingsID = "main"

func (r *Postgres) GetSettings(ctx context.Context) (*models.Settings, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc []byte
	if err := r.db.QueryRowContext(ctx, `SELECT doc FROM settings WHERE id = $1`, settingsID).Scan(&doc); err != nil {
		return nil, classify("get settings", err)
	}
	var s models.Settings
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("get settings: decode: %w", err)
	}
	return &s, nil
}

func (r *Postgres) SaveSettings(ctx context.Context, s *models.Settings) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("save settings: encode: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, doc, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		settingsID, doc)
	return classify("save settings", err)
}
