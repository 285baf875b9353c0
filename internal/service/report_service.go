package service

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-order-service/internal/models"
	"github.com/Cheertaboi/storefront-order-service/internal/repository"
)

// CustomerSummary aggregates the orders placed with one phone number.
type CustomerSummary struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email,omitempty"`
	OrderCount  int             `json:"order_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	LastOrderAt time.Time       `json:"last_order_at"`
}

// ReportService builds the admin customer list and CSV exports.
type ReportService struct {
	orders repository.Orders
}

func NewReportService(orders repository.Orders) *ReportService {
	return &ReportService{orders: orders}
}

// Customers groups all orders by normalized phone. The latest order wins for
// name and email. Canceled and refunded orders count toward OrderCount but
// not TotalSpent.
func (s *ReportService) Customers(ctx context.Context) ([]CustomerSummary, error) {
	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{})
	if err != nil {
		return nil, err
	}

	byPhone := make(map[string]*CustomerSummary)
	for _, o := range orders {
		key := models.NormalizePhone(o.Customer.Phone)
		c, ok := byPhone[key]
		if !ok {
			c = &CustomerSummary{Phone: o.Customer.Phone, TotalSpent: decimal.Zero}
			byPhone[key] = c
		}
		c.OrderCount++
		if !o.Status.ReleasesInventory() {
			c.TotalSpent = c.TotalSpent.Add(o.Amounts.Total)
		}
		if !o.CreatedAt.Before(c.LastOrderAt) {
			c.LastOrderAt = o.CreatedAt
			c.Name = o.Customer.Name
			c.Phone = o.Customer.Phone
			if o.Customer.Email != "" {
				c.Email = o.Customer.Email
			}
		}
	}

	out := make([]CustomerSummary, 0, len(byPhone))
	for _, c := range byPhone {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastOrderAt.Equal(out[j].LastOrderAt) {
			return out[i].Phone < out[j].Phone
		}
		return out[i].LastOrderAt.After(out[j].LastOrderAt)
	})
	return out, nil
}

var orderCSVHeader = []string{
	"order_id", "created_at", "status", "customer_name", "customer_phone", "customer_email",
	"items", "subtotal", "discount", "shipping", "total", "coupon",
	"payment_method", "transaction_id", "verified", "shipping_method", "address", "city",
}

// WriteOrdersCSV exports the orders matching f.
func (s *ReportService) WriteOrdersCSV(ctx context.Context, w io.Writer, f models.OrderFilter) error {
	orders, err := s.orders.ListOrders(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(orderCSVHeader); err != nil {
		return err
	}
	for _, o := range orders {
		items := make([]string, 0, len(o.Lines))
		for _, l := range o.Lines {
			items = append(items, l.SKU+" x"+strconv.Itoa(l.Qty))
		}
		record := []string{
			strconv.FormatInt(o.OrderID, 10),
			o.CreatedAt.UTC().Format(time.RFC3339),
			string(o.Status),
			o.Customer.Name,
			o.Customer.Phone,
			o.Customer.Email,
			strings.Join(items, "; "),
			o.Amounts.Subtotal.StringFixed(2),
			o.Amounts.Discount.StringFixed(2),
			o.Amounts.Shipping.StringFixed(2),
			o.Amounts.Total.StringFixed(2),
			o.CouponCode,
			string(o.Payment.Method),
			o.Payment.TransactionID,
			strconv.FormatBool(o.Payment.Verified),
			o.Shipping.Method,
			o.Shipping.Address,
			o.Shipping.City,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCustomersCSV exports the customer aggregate.
func (s *ReportService) WriteCustomersCSV(ctx context.Context, w io.Writer) error {
	customers, err := s.Customers(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "phone", "email", "order_count", "total_spent", "last_order_at"}); err != nil {
		return err
	}
	for _, c := range customers {
		if err := cw.Write([]string{
			c.Name,
			c.Phone,
			c.Email,
			strconv.Itoa(c.OrderCount),
			c.TotalSpent.StringFixed(2),
			c.LastOrderAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
