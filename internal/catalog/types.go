// Package catalog provides a client for the storefront product feed.
package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/thomas/eva-cart-go/internal/cart"
)

// Product is one catalog entry. Prices are in USD.
type Product struct {
	ID               int               `json:"id"`
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	Description      string            `json:"description"` // HTML
	ShortDescription string            `json:"short_description"`
	ImagePath        string            `json:"image_path"`
	PriceUSD         decimal.Decimal   `json:"price_usd"`
	StockStatus      string            `json:"stock_status"` // "instock", "outofstock"
	LocalizedNames   map[string]string `json:"localized_names,omitempty"`
	ShortTitles      map[string]string `json:"short_titles,omitempty"`
	Variants         []Variant         `json:"variants,omitempty"`
}

// Variant is a purchasable option of a product, e.g. 250g or 1kg.
type Variant struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	StockStatus string          `json:"stock_status"`
}

// IsInStock returns true if the product is in stock.
func (p *Product) IsInStock() bool {
	return p.StockStatus == "" || p.StockStatus == "instock"
}

// HasVariants returns true if a variant must be chosen before adding.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant returns the variant with the given id.
func (p *Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// IsInStock returns true if the variant is in stock.
func (v *Variant) IsInStock() bool {
	return v.StockStatus == "" || v.StockStatus == "instock"
}

// CartProduct converts the product, or one of its variants when v is not
// nil, into what the cart stores.
func (p *Product) CartProduct(v *Variant) cart.Product {
	cp := cart.Product{
		ID:             p.ID,
		Name:           p.Name,
		BasePriceUSD:   p.PriceUSD.InexactFloat64(),
		LocalizedNames: p.LocalizedNames,
		ShortTitles:    p.ShortTitles,
		Slug:           p.Slug,
		ImagePath:      p.ImagePath,
	}
	if v != nil {
		cp.VariantID = v.ID
		cp.VariantName = v.Name
		cp.BasePriceUSD = v.PriceUSD.InexactFloat64()
	}
	return cp
}
