package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
)

const orderColumns = `order_id, status, lines, subtotal, discount, shipping_fee, total,
	coupon_code, customer_name, customer_phone, customer_email, shipping, payment,
	notes, created_at, updated_at`

func (t *pgTx) NextOrderID(ctx context.Context) (int64, error) {
	var id int64
	if err := t.q.QueryRowContext(ctx, `SELECT nextval('order_id_seq')`).Scan(&id); err != nil {
		return 0, classify("next order id", err)
	}
	return id, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *models.Order) error {
	const op = "insert order"

	lines, shipping, payment, err := marshalOrderDocs(o)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = t.q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.OrderID,
		string(o.Status),
		lines,
		o.Amounts.Subtotal,
		o.Amounts.Discount,
		o.Amounts.Shipping,
		o.Amounts.Total,
		o.CouponCode,
		o.Customer.Name,
		o.Customer.Phone,
		o.Customer.Email,
		shipping,
		payment,
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return classify(op, err)
}

func (t *pgTx) GetOrderForUpdate(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := scanOrder(t.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1 FOR UPDATE`, orderID))
	if err != nil {
		return nil, classify("get order for update", err)
	}
	return o, nil
}

// UpdateOrder writes the mutable parts of an order: status, payment, notes.
// Lines and amounts are fixed at creation.
func (t *pgTx) UpdateOrder(ctx context.Context, o *models.Order) error {
	const op = "update order"

	payment, err := json.Marshal(o.Payment)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := t.q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, payment = $3, notes = $4, updated_at = $5
		WHERE order_id = $1`,
		o.OrderID, string(o.Status), payment, o.Notes, o.UpdatedAt)
	return expectOne(op, res, err)
}

func (r *Postgres) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID))
	if err != nil {
		return nil, classify("get order", err)
	}
	return o, nil
}

func (r *Postgres) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, strings.ToLower(s))
		cond := fmt.Sprintf("(LOWER(customer_email) = $%d OR customer_phone = $%d", len(args), len(args))
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			args = append(args, id)
			cond += fmt.Sprintf(" OR order_id = $%d", len(args))
		}
		where = append(where, cond+")")
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY order_id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list orders", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify("list orders", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list orders", err)
	}
	return orders, nil
}

func marshalOrderDocs(o *models.Order) (lines, shipping, payment []byte, err error) {
	if lines, err = json.Marshal(o.Lines); err != nil {
		return nil, nil, nil, err
	}
	if shipping, err = json.Marshal(o.Shipping); err != nil {
		return nil, nil, nil, err
	}
	if payment, err = json.Marshal(o.Payment); err != nil {
		return nil, nil, nil, err
	}
	return lines, shipping, payment, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o                        models.Order
		status                   string
		lines, shipping, payment []byte
	)
	err := row.Scan(
		&o.OrderID,
		&status,
		&lines,
		&o.Amounts.Subtotal,
		&o.Amounts.Discount,
		&o.Amounts.Shipping,
		&o.Amounts.Total,
		&o.CouponCode,
		&o.Customer.Name,
		&o.Customer.Phone,
		&o.Customer.Email,
		&shipping,
		&payment,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = models.Status(status)
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, fmt.Errorf("decode order lines: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return nil, fmt.Errorf("decode order shipping: %w", err)
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return nil, fmt.Errorf("decode order payment: %w", err)
	}
	return &o, nil
}
