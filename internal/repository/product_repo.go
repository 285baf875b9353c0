package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

const productColumns = `id, name, slug, description, price, compare_at_price, category,
	tags, images, status, created_at, updated_at`

func (r *Postgres) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return r.getProduct(ctx, "get product", `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *Postgres) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.getProduct(ctx, "get product by slug", `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *Postgres) getProduct(ctx context.Context, op, query string, arg any) (*models.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, classify(op, err)
	}

	variants, err := loadVariants(ctx, r.db, []string{p.ID})
	if err != nil {
		return nil, classify(op, err)
	}
	p.Variants = variants[p.ID]
	return p, nil
}

func (r *Postgres) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Tag != "" {
		add("$%d = ANY(tags)", strings.ToLower(f.Tag))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("name ILIKE $%d", "%"+escapeLike(s)+"%")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list products", err)
	}
	defer rows.Close()

	var (
		products []models.Product
		ids      []string
	)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, classify("list products", err)
		}
		products = append(products, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list products", err)
	}
	if len(ids) == 0 {
		return products, nil
	}

	variants, err := loadVariants(ctx, r.db, ids)
	if err != nil {
		return nil, classify("list products", err)
	}
	for i := range products {
		products[i].Variants = variants[products[i].ID]
	}
	return products, nil
}

func (r *Postgres) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.writeProduct(ctx, "create product", p, true)
}

func (r *Postgres) UpdateProduct(ctx context.Context, p *models.Product) error {
	return r.writeProduct(ctx, "update product", p, false)
}

// writeProduct stores the product row and replaces its variant set in one
// transaction.
func (r *Postgres) writeProduct(ctx context.Context, op string, p *models.Product, insert bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	args := []any{
		p.ID, p.Name, p.Slug, p.Description, p.Price, nullDecimal(p.CompareAtPrice), p.Category,
		pq.Array(p.Tags), pq.Array(p.Images), string(p.Status), p.CreatedAt, p.UpdatedAt,
	}
	if insert {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`, args...)
		if err != nil {
			return classify(op, err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = $2, slug = $3, description = $4, price = $5, compare_at_price = $6,
			    category = $7, tags = $8, images = $9, status = $10, updated_at = $11
			WHERE id = $1`, append(args[:10:10], p.UpdatedAt)...)
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
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, p.ID); err != nil {
			return classify(op, err)
		}
	}

	const insertVariant = `
		INSERT INTO product_variants (product_id, sku, color, size, stock, price_override, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, v := range p.Variants {
		if _, err := tx.ExecContext(ctx, insertVariant,
			p.ID, v.SKU, v.Color, v.Size, v.Stock, nullDecimal(v.PriceOverride), i,
		); err != nil {
			return classify(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

func (r *Postgres) SetProductStatus(ctx context.Context, id string, status models.ProductStatus) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return classify("set product status", err)
	}
	n, err := rowsAffected("set product status", res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("set product status")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p         models.Product
		compareAt decimal.NullDecimal
		status    string
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&compareAt,
		&p.Category,
		pq.Array(&p.Tags),
		pq.Array(&p.Images),
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if compareAt.Valid {
		v := compareAt.Decimal
		p.CompareAtPrice = &v
	}
	p.Status = models.ProductStatus(status)
	return &p, nil
}

func loadVariants(ctx context.Context, q querier, productIDs []string) (map[string][]models.Variant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, sku, color, size, stock, price_override
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY product_id, position`, pq.Array(productIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.Variant, len(productIDs))
	for rows.Next() {
		var (
			productID string
			v         models.Variant
			override  decimal.NullDecimal
		)
		if err := rows.Scan(&productID, &v.SKU, &v.Color, &v.Size, &v.Stock, &override); err != nil {
			return nil, err
		}
		if override.Valid {
			d := override.Decimal
			v.PriceOverride = &d
		}
		out[productID] = append(out[productID], v)
	}
	return out, rows.Err()
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
