package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

const couponColumns = `code, type, value, min_order, usage_limit, used_count,
	expires_at, active, created_at, updated_at`

func (r *Postgres) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	c, err := scanCoupon(r.db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		return nil, classify("get coupon", err)
	}
	return c, nil
}

func (r *Postgres) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, classify("list coupons", err)
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, classify("list coupons", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list coupons", err)
	}
	return coupons, nil
}

func (r *Postgres) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.Code,
		string(c.Type),
		c.Value,
		c.MinOrder,
		nullInt(c.UsageLimit),
		c.UsedCount,
		nullTime(c.ExpiresAt),
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return classify("create coupon", err)
}

// UpdateCoupon rewrites the definition but never used_count, which only
// moves through the order transaction.
func (r *Postgres) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE coupons
		SET type = $2, value = $3, min_order = $4, usage_limit = $5,
		    expires_at = $6, active = $7, updated_at = $8
		WHERE code = $1`,
		c.Code,
		string(c.Type),
		c.Value,
		c.MinOrder,
		nullInt(c.UsageLimit),
		nullTime(c.ExpiresAt),
		c.Active,
		c.UpdatedAt,
	)
	return expectOne("update coupon", res, err)
}

func (r *Postgres) SetCouponActive(ctx context.Context, code string, active bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE coupons SET active = $2, updated_at = NOW() WHERE code = $1`, code, active)
	return expectOne("set coupon active", res, err)
}

func (r *Postgres) DeleteCoupon(ctx context.Context, code string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	return expectOne("delete coupon", res, err)
}

func scanCoupon(row rowScanner) (*models.Coupon, error) {
	var (
		c         models.Coupon
		typ       string
		limit     sql.NullInt64
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&c.Code,
		&typ,
		&c.Value,
		&c.MinOrder,
		&limit,
		&c.UsedCount,
		&expiresAt,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Type = models.CouponType(typ)
	if limit.Valid {
		l := int(limit.Int64)
		c.UsageLimit = &l
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

func expectOne(op string, res sql.Result, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := rowsAffected(op, res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(op)
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
