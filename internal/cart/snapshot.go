package cart

import (
	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/gift"
)

// Item is a line item with prices converted to the snapshot currency.
type Item struct {
	LineItem
	Price          float64
	OriginalPrice  float64
	CurrencySymbol string
}

// LineTotal is the localized unit price times quantity.
func (i Item) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// GiftProgress is the localized view of the buyer's gift tier position.
// Optional amounts are nil when they do not apply.
type GiftProgress struct {
	CurrentTier                      *gift.Tier
	NextTier                         *gift.Tier
	ProgressPercentage               float64
	LocalizedAmountNeededForNextTier *float64
	LocalizedCurrentGiftValue        *float64
	LocalizedNextGiftValue           *float64
	IsFinalTierUnlocked              bool
}

// Snapshot is the fully derived view of a cart for one (country, locale).
// It is recomputed on every change and never persisted.
type Snapshot struct {
	Items                     []Item
	ItemCount                 int
	TotalPrice                float64
	OriginalTotalPrice        float64
	BaseTotalPriceUSD         float64
	BaseOriginalTotalPriceUSD float64
	Currency                  currency.Info
	Country                   string
	Locale                    string
	GiftProgress              GiftProgress

	// RateFallback is set when the currency had no exchange rate and USD
	// amounts were shown unconverted.
	RateFallback bool
}

// Item looks up a line by identity key.
func (s Snapshot) Item(key string) (Item, bool) {
	for _, it := range s.Items {
		if it.Key() == key {
			return it, true
		}
	}
	return Item{}, false
}

// IsEmpty reports whether the cart has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Savings is the localized difference between original and discounted
// totals, gift value included.
func (s Snapshot) Savings() float64 {
	return s.OriginalTotalPrice - s.TotalPrice
}

// Format renders an amount in the snapshot's currency and locale.
func (s Snapshot) Format(amount float64) string {
	return currency.Format(amount, s.Currency, s.Locale)
}
