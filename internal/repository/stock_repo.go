package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

// DecrementStock takes qty off a variant in one conditional UPDATE, so
// concurrent checkouts cannot oversell.
func (t *pgTx) DecrementStock(ctx context.Context, productID, sku string, qty int) error {
	const op = "decrement stock"

	res, err := t.q.ExecContext(ctx, `
		UPDATE product_variants
		SET stock = stock - $3
		WHERE product_id = $1 AND sku = $2 AND stock >= $3`,
		productID, sku, qty)
	if err != nil {
		return classify(op, err)
	}
	n, err := rowsAffected(op, res)
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var available int
	err = t.q.QueryRowContext(ctx,
		`SELECT stock FROM product_variants WHERE product_id = $1 AND sku = $2`,
		productID, sku).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.InsufficientStockError{SKU: sku, Requested: qty}
	}
	if err != nil {
		return classify(op, err)
	}
	return &models.InsufficientStockError{SKU: sku, Requested: qty, Available: available}
}

func (t *pgTx) RestoreStock(ctx context.Context, productID, sku string, qty int) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE product_variants
		SET stock = stock + $3
		WHERE product_id = $1 AND sku = $2`,
		productID, sku, qty)
	return expectOne("restore stock", res, err)
}
