package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as served by the backend. The storefront never
// mutates products; they are inputs to pricing and stock checks.
type Product struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Category     string          `json:"category,omitempty"`
	Images       []string        `json:"images,omitempty"`
	HasVariants  bool            `json:"hasVariants"`
	IsPreOrder   bool            `json:"isPreOrder"`
	IsPublish    bool            `json:"isPublish"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	TotalStock   int             `json:"total_stock"`
	Currency     string          `json:"currency"`
	Variants     []Variant       `json:"variantsId"`
}

// Variant returns the variant with the given id.
func (p Product) Variant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// Image returns the first product image, or "".
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Variant is one purchasable configuration of a product (a size, a flavor).
type Variant struct {
	ID           string              `json:"_id"`
	SellingPrice decimal.Decimal     `json:"selling_price"`
	OfferPrice   decimal.NullDecimal `json:"offer_price"`

	// Discount window bounds as sent by the backend. Either may be empty.
	DiscountStartDate string `json:"discount_start_date,omitempty"`
	DiscountEndDate   string `json:"discount_end_date,omitempty"`

	// Backend-computed discount. When IsDiscountActive is set with a positive
	// FinalPrice it wins over anything derived from the window.
	FinalPrice       decimal.NullDecimal `json:"finalPrice"`
	IsDiscountActive bool                `json:"isDiscountActive"`

	Stock      int      `json:"variants_stock"`
	Values     []string `json:"variants_values"`
	IsPreOrder bool     `json:"isPreOrder"`
	Image      string   `json:"image,omitempty"`
}

// Pricing is the resolved price of a product/variant at a point in time.
type Pricing struct {
	SellingPrice     decimal.Decimal
	FinalPrice       decimal.Decimal
	DiscountPercent  int
	DiscountAmount   string
	IsDiscountActive bool
	DiscountStart    *time.Time
	DiscountEnd      *time.Time
}

// ProductQuery filters the backend product listing.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
	ID       string
}

// ProductPage is one page of products plus the backend's pagination info.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}
