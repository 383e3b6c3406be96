// Package cart defines the durable line item records and projects them into
// localized snapshots.
package cart

import (
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// OriginalPriceRatio converts a discounted USD price into the undiscounted
// reference price: original = base / OriginalPriceRatio.
const OriginalPriceRatio = 0.7

// DeriveOriginalPrice applies OriginalPriceRatio to a base USD price.
func DeriveOriginalPrice(baseUSD float64) float64 {
	return usd(baseUSD).
		Div(decimal.NewFromFloat(OriginalPriceRatio)).
		InexactFloat64()
}

// usd converts a float amount to a decimal. NaN and infinities count as
// zero so projections never panic.
func usd(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Product describes something that can be added to the cart.
type Product struct {
	ID             int
	Name           string
	BasePriceUSD   float64
	VariantID      string
	VariantName    string
	LocalizedNames map[string]string
	ShortTitles    map[string]string
	Slug           string
	ImagePath      string
}

// Key returns the identity key the product would have as a line item.
func (p Product) Key() string {
	return identityKey(p.ID, p.VariantID)
}

// LineItem is one persisted cart row. It is the JSON shape written to the
// durable store.
type LineItem struct {
	ProductID            int               `json:"productId"`
	VariantID            string            `json:"variantId,omitempty"`
	VariantName          string            `json:"variantName,omitempty"`
	ProductNameCanonical string            `json:"productNameCanonical"`
	ProductNameLocalized map[string]string `json:"productNameLocalized,omitempty"`
	ShortTitleLocalized  map[string]string `json:"shortTitleLocalized,omitempty"`
	SlugOverride         string            `json:"slugOverride,omitempty"`
	ImagePath            string            `json:"imagePath,omitempty"`
	BasePriceUSD         float64           `json:"basePriceUSD"`
	OriginalBasePriceUSD *float64          `json:"originalBasePriceUSD,omitempty"`
	Quantity             int               `json:"quantity"`
}

// NewLineItem builds a row for a product priced at unitPriceUSD. The
// original price is derived and stored explicitly.
func NewLineItem(p Product, quantity int, unitPriceUSD float64) LineItem {
	original := DeriveOriginalPrice(unitPriceUSD)
	return LineItem{
		ProductID:            p.ID,
		VariantID:            p.VariantID,
		VariantName:          p.VariantName,
		ProductNameCanonical: p.Name,
		ProductNameLocalized: maps.Clone(p.LocalizedNames),
		ShortTitleLocalized:  maps.Clone(p.ShortTitles),
		SlugOverride:         p.Slug,
		ImagePath:            p.ImagePath,
		BasePriceUSD:         unitPriceUSD,
		OriginalBasePriceUSD: &original,
		Quantity:             quantity,
	}
}

// Key returns the variant id, or the product id when there is no variant.
func (li LineItem) Key() string {
	return identityKey(li.ProductID, li.VariantID)
}

// OriginalPriceUSD returns the stored original price or derives it.
func (li LineItem) OriginalPriceUSD() float64 {
	if li.OriginalBasePriceUSD != nil {
		return *li.OriginalBasePriceUSD
	}
	return DeriveOriginalPrice(li.BasePriceUSD)
}

// DisplayName picks the localized name for locale ("de-DE" matches "de-DE"
// then "de"), falling back to the canonical name. The variant name is
// appended in parentheses.
func (li LineItem) DisplayName(locale string) string {
	name := Localized(li.ProductNameLocalized, locale, li.ProductNameCanonical)
	if li.VariantName != "" {
		name += " (" + li.VariantName + ")"
	}
	return name
}

// ShortTitle returns the localized short title, or the display name.
func (li LineItem) ShortTitle(locale string) string {
	return Localized(li.ShortTitleLocalized, locale, li.DisplayName(locale))
}

// Clone returns a deep copy.
func (li LineItem) Clone() LineItem {
	out := li
	out.ProductNameLocalized = maps.Clone(li.ProductNameLocalized)
	out.ShortTitleLocalized = maps.Clone(li.ShortTitleLocalized)
	if li.OriginalBasePriceUSD != nil {
		v := *li.OriginalBasePriceUSD
		out.OriginalBasePriceUSD = &v
	}
	return out
}

// Localized looks up a locale in a name map, trying the full tag first and
// then its language.
func Localized(names map[string]string, locale, fallback string) string {
	if len(names) == 0 || locale == "" {
		return fallback
	}
	if v, ok := names[locale]; ok && v != "" {
		return v
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		if v, ok := names[base]; ok && v != "" {
			return v
		}
	}
	return fallback
}

func identityKey(productID int, variantID string) string {
	if variantID != "" {
		return variantID
	}
	return strconv.Itoa(productID)
}
