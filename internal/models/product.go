package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// descriptionPolicy is the markup allowed in product descriptions: basic
// formatting, lists and links with http, https or mailto targets.
var descriptionPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "b", "i", "u", "ul", "ol", "li", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	return p
}()

type ProductStatus string

const (
	ProductActive ProductStatus = "active"
	ProductDraft  ProductStatus = "draft"
)

func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductDraft
}

type Product struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Category       string           `json:"category"`
	Tags           []string         `json:"tags"`
	Images         []string         `json:"images"`
	Variants       []Variant        `json:"variants"`
	Status         ProductStatus    `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type Variant struct {
	Color         string           `json:"color"`
	Size          string           `json:"size"`
	SKU           string           `json:"sku"`
	Stock         int              `json:"stock"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

// ProductFilter narrows catalog listings. Zero values match everything.
type ProductFilter struct {
	Status   ProductStatus
	Category string
	Tag      string
	Search   string
}

// GenerateSlug turns a product name into its URL slug.
func GenerateSlug(name string) string {
	return slug.Make(name)
}

// GenerateSKU derives the stock-keeping code for a product variant.
func GenerateSKU(productName, color, size string) string {
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", slug.Make(productName), slug.Make(color), strings.TrimSpace(size)))
}

// Variant returns the variant with the given SKU.
func (p *Product) Variant(sku string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// VariantByOption finds the variant with color and size, ignoring case.
func (p *Product) VariantByOption(color, size string) (*Variant, bool) {
	color, size = strings.TrimSpace(color), strings.TrimSpace(size)
	for i := range p.Variants {
		v := &p.Variants[i]
		if strings.EqualFold(v.Color, color) && strings.EqualFold(v.Size, size) {
			return v, true
		}
	}
	return nil, false
}

// CarrySKUs gives every variant that already exists in prev (same color
// and size) its previous SKU, so orders placed before a rename still
// reference it. Other variants get a fresh SKU from Normalize.
func (p *Product) CarrySKUs(prev *Product) {
	for i := range p.Variants {
		v := &p.Variants[i]
		v.SKU = ""
		if old, ok := prev.VariantByOption(v.Color, v.Size); ok {
			v.SKU = old.SKU
		}
	}
}

func (p *Product) IsActive() bool { return p.Status == ProductActive }

// UnitPrice is the variant override when set, the product price otherwise.
func (p *Product) UnitPrice(v Variant) decimal.Decimal {
	if v.PriceOverride != nil {
		return *v.PriceOverride
	}
	return p.Price
}

// TotalStock sums stock across all variants.
func (p *Product) TotalStock() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	return total
}

// Normalize fills derived fields (slug, missing SKUs), sanitizes the
// description and trims admin input.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(descriptionPolicy.Sanitize(p.Description))
	p.Category = strings.TrimSpace(p.Category)
	if p.Slug == "" {
		p.Slug = GenerateSlug(p.Name)
	}
	tags := make([]string, 0, len(p.Tags))
	seen := make(map[string]bool, len(p.Tags))
	for _, t := range p.Tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	p.Tags = tags
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	p.Images = images
	for i := range p.Variants {
		v := &p.Variants[i]
		v.Color = strings.TrimSpace(v.Color)
		v.Size = strings.TrimSpace(v.Size)
		v.SKU = strings.ToUpper(strings.TrimSpace(v.SKU))
		if v.SKU == "" {
			v.SKU = GenerateSKU(p.Name, v.Color, v.Size)
		}
	}
	if p.Status == "" {
		p.Status = ProductDraft
	}
}

// Validate checks catalog invariants. Call after Normalize.
func (p *Product) Validate() error {
	if p.Name == "" {
		return Invalid("product name is required")
	}
	if p.Slug == "" {
		return Invalid("product slug is required")
	}
	if !p.Price.IsPositive() {
		return Invalid("product price must be positive")
	}
	if p.CompareAtPrice != nil && p.CompareAtPrice.IsNegative() {
		return Invalid("compare-at price cannot be negative")
	}
	if !p.Status.Valid() {
		return Invalid("unknown product status %q", p.Status)
	}
	skus := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		if v.Stock < 0 {
			return Invalid("variant %s: stock cannot be negative", v.SKU)
		}
		if v.PriceOverride != nil && !v.PriceOverride.IsPositive() {
			return Invalid("variant %s: price override must be positive", v.SKU)
		}
		if skus[v.SKU] {
			return Invalid("duplicate variant %s", v.SKU)
		}
		skus[v.SKU] = true
	}
	return nil
}
