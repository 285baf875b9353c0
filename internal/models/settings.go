package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ShippingMethod struct {
	Name        string          `json:"name"`
	Fee         decimal.Decimal `json:"fee"`
	Description string          `json:"description"`
}

// Settings is the singleton site configuration document.
type Settings struct {
	Brand                 string           `json:"brand"`
	SupportPhone          string           `json:"support_phone"`
	SupportEmail          string           `json:"support_email"`
	BkashNumber           string           `json:"bkash_number"`
	NagadNumber           string           `json:"nagad_number"`
	VerificationSLAHours  int              `json:"verification_sla_hours"`
	ShippingMethods       []ShippingMethod `json:"shipping_methods"`
	FreeShippingThreshold decimal.Decimal  `json:"free_shipping_threshold"`
	SEOTitle              string           `json:"seo_title"`
	SEODescription        string           `json:"seo_description"`
	Maintenance           bool             `json:"maintenance"`
}

// DefaultSettings is the document seeded when the store has none.
func DefaultSettings(brand string) *Settings {
	return &Settings{
		Brand:                brand,
		SupportPhone:         "1234567890",
		SupportEmail:         "support@example.com",
		BkashNumber:          "01xxxxxxxxx",
		NagadNumber:          "01xxxxxxxxx",
		VerificationSLAHours: 24,
		ShippingMethods: []ShippingMethod{
			{Name: "Standard", Fee: decimal.NewFromInt(50), Description: "3-5 days"},
			{Name: "Express", Fee: decimal.NewFromInt(100), Description: "1-2 days"},
		},
		FreeShippingThreshold: decimal.NewFromInt(1000),
		SEOTitle:              brand,
	}
}

// Clone returns a copy that shares nothing mutable with s.
func (s *Settings) Clone() *Settings {
	cp := *s
	cp.ShippingMethods = append([]ShippingMethod(nil), s.ShippingMethods...)
	return &cp
}

// ShippingMethod looks up a method by name, ignoring case.
func (s *Settings) ShippingMethod(name string) (ShippingMethod, bool) {
	name = strings.TrimSpace(name)
	for _, m := range s.ShippingMethods {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Brand) == "" {
		return Invalid("brand is required")
	}
	if s.VerificationSLAHours < 0 {
		return Invalid("verification SLA cannot be negative")
	}
	if s.FreeShippingThreshold.IsNegative() {
		return Invalid("free shipping threshold cannot be negative")
	}
	seen := make(map[string]bool, len(s.ShippingMethods))
	for _, m := range s.ShippingMethods {
		key := strings.ToLower(strings.TrimSpace(m.Name))
		if key == "" {
			return Invalid("shipping method name is required")
		}
		if seen[key] {
			return Invalid("duplicate shipping method %q", m.Name)
		}
		seen[key] = true
		if m.Fee.IsNegative() {
			return Invalid("shipping method %q: fee cannot be negative", m.Name)
		}
	}
	return nil
}

// PublicSettings is the part of Settings the storefront exposes.
type PublicSettings struct {
	Brand                 string           `json:"brand"`
	SupportPhone          string           `json:"support_phone"`
	SupportEmail          string           `json:"support_email"`
	BkashNumber           string           `json:"bkash_number"`
	NagadNumber           string           `json:"nagad_number"`
	VerificationSLAHours  int              `json:"verification_sla_hours"`
	ShippingMethods       []ShippingMethod `json:"shipping_methods"`
	FreeShippingThreshold decimal.Decimal  `json:"free_shipping_threshold"`
	SEOTitle              string           `json:"seo_title"`
	SEODescription        string           `json:"seo_description"`
}

func (s *Settings) Public() PublicSettings {
	return PublicSettings{
		Brand:                 s.Brand,
		SupportPhone:          s.SupportPhone,
		SupportEmail:          s.SupportEmail,
		BkashNumber:           s.BkashNumber,
		NagadNumber:           s.NagadNumber,
		VerificationSLAHours:  s.VerificationSLAHours,
		ShippingMethods:       s.ShippingMethods,
		FreeShippingThreshold: s.FreeShippingThreshold,
		SEOTitle:              s.SEOTitle,
		SEODescription:        s.SEODescription,
	}
}
