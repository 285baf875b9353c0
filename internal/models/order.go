package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusVerified            Status = "verified"
	StatusProcessing          Status = "processing"
	StatusShipped             Status = "shipped"
	StatusDelivered           Status = "delivered"
	StatusCanceled            Status = "canceled"
	StatusRefunded            Status = "refunded"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPendingVerification,
	StatusVerified,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCanceled,
	StatusRefunded,
}

var transitions = map[Status][]Status{
	StatusPendingVerification: {StatusVerified, StatusCanceled, StatusRefunded},
	StatusVerified:            {StatusProcessing, StatusCanceled, StatusRefunded},
	StatusProcessing:          {StatusShipped, StatusCanceled, StatusRefunded},
	StatusShipped:             {StatusDelivered},
}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ReleasesInventory is true for statuses that hand committed stock back.
func (s Status) ReleasesInventory() bool {
	return s == StatusCanceled || s == StatusRefunded
}

type PaymentMethod string

const (
	PaymentBkash PaymentMethod = "bkash"
	PaymentNagad PaymentMethod = "nagad"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentBkash || m == PaymentNagad
}

// OrderLine is a snapshot of a cart line taken when the order was placed.
// Catalog changes after that point never touch it.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Slug        string          `json:"slug"`
	Image       string          `json:"image,omitempty"`
	SKU         string          `json:"sku"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

type Amounts struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type ShippingInfo struct {
	Address      string `json:"address"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Method       string `json:"method"`
	DeliveryNote string `json:"delivery_note,omitempty"`
}

// PaymentDraft is what the buyer submits: an unverified wallet transaction.
type PaymentDraft struct {
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transaction_id"`
	Screenshot    string        `json:"screenshot,omitempty"`
}

type Payment struct {
	PaymentDraft
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

type Order struct {
	OrderID    int64        `json:"order_id"`
	Lines      []OrderLine  `json:"lines"`
	Amounts    Amounts      `json:"amounts"`
	CouponCode string       `json:"coupon_code,omitempty"`
	Customer   Customer     `json:"customer"`
	Shipping   ShippingInfo `json:"shipping"`
	Payment    Payment      `json:"payment"`
	Status     Status       `json:"status"`
	Notes      string       `json:"notes,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// AppendNote adds a line to the free-text notes.
func (o *Order) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if o.Notes == "" {
		o.Notes = note
		return
	}
	o.Notes += "\n" + note
}

// OwnedBy reports whether contact matches the customer's phone or email.
func (o *Order) OwnedBy(contact string) bool {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return false
	}
	if o.Customer.Email != "" && strings.EqualFold(contact, strings.TrimSpace(o.Customer.Email)) {
		return true
	}
	phone := NormalizePhone(contact)
	return phone != "" && phone == NormalizePhone(o.Customer.Phone)
}

// NormalizePhone keeps only digits so "+880 1711-000000" and "8801711000000"
// compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Summary is the view of an order shown to its owner.
func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		OrderID:        o.OrderID,
		Status:         o.Status,
		Lines:          o.Lines,
		Amounts:        o.Amounts,
		ShippingMethod: o.Shipping.Method,
		PaymentMethod:  o.Payment.Method,
		Verified:       o.Payment.Verified,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

type OrderSummary struct {
	OrderID        int64         `json:"order_id"`
	Status         Status        `json:"status"`
	Lines          []OrderLine   `json:"lines"`
	Amounts        Amounts       `json:"amounts"`
	ShippingMethod string        `json:"shipping_method"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	Verified       bool          `json:"verified"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Timeline       []StatusEvent `json:"timeline,omitempty"`
}

// StatusEvent is one entry of an order's status timeline.
type StatusEvent struct {
	From Status    `json:"from,omitempty"`
	To   Status    `json:"to"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status Status
	Search string // order id, phone or email
	Limit  int
	Offset int
}

// Checkout bundles the shopper input needed to place an order.
type Checkout struct {
	Cart       []CartLine
	Customer   Customer
	Shipping   ShippingInfo
	Payment    PaymentDraft
	CouponCode string
}

// Validate checks the non-cart checkout fields.
func (c *Checkout) Validate() error {
	if strings.TrimSpace(c.Customer.Name) == "" {
		return Invalid("customer name is required")
	}
	if len(NormalizePhone(c.Customer.Phone)) < 6 {
		return Invalid("a valid phone number is required")
	}
	if c.Customer.Email != "" && !strings.Contains(c.Customer.Email, "@") {
		return Invalid("email address is invalid")
	}
	if strings.TrimSpace(c.Shipping.Address) == "" || strings.TrimSpace(c.Shipping.City) == "" {
		return Invalid("shipping address and city are required")
	}
	if !c.Payment.Method.Valid() {
		return Invalid("payment method must be bkash or nagad")
	}
	if strings.TrimSpace(c.Payment.TransactionID) == "" {
		return Invalid("transaction id is required")
	}
	return nil
}

// Decision is an admin's verdict on a submitted payment.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)
