package cart

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/gift"
)

// Engine projects line items into snapshots. It holds only read-only
// reference data and is safe for concurrent use.
type Engine struct {
	currencies *currency.Table
	tiers      gift.Table
	logger     *log.Logger
}

// NewEngine creates a projection engine. A nil logger discards output.
func NewEngine(currencies *currency.Table, tiers gift.Table, logger *log.Logger) *Engine {
	if currencies == nil {
		currencies = currency.New(currency.Data{})
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		currencies: currencies,
		tiers:      tiers,
		logger:     logger,
	}
}

// Currencies exposes the engine's currency table.
func (e *Engine) Currencies() *currency.Table {
	return e.currencies
}

// Project derives the snapshot for items as seen from country, formatted
// for locale. It never fails and never modifies items.
func (e *Engine) Project(items []LineItem, country, locale string) Snapshot {
	cur, known := e.currencies.ForCountry(country)
	if !known {
		e.logger.Debug("unknown country, using default currency", "country", country, "currency", cur.Code)
	}

	rate, ok := e.currencies.Rate(cur.Code)
	if !ok {
		rate = decimal.NewFromInt(1)
		e.logger.Warn("missing exchange rate, showing USD amounts unconverted", "currency", cur.Code, "country", country)
	}

	snap := Snapshot{
		Items:        make([]Item, 0, len(items)),
		Currency:     cur,
		Country:      country,
		Locale:       locale,
		RateFallback: !ok,
	}

	var (
		total        decimal.Decimal
		originalSum  decimal.Decimal
		baseTotal    decimal.Decimal
		baseOriginal decimal.Decimal
	)

	for _, li := range items {
		qty := decimal.NewFromInt(int64(li.Quantity))
		base := usd(li.BasePriceUSD)
		baseOrig := usd(li.OriginalPriceUSD())

		price := base.Mul(rate)
		origPrice := baseOrig.Mul(rate)

		snap.ItemCount += li.Quantity
		baseTotal = baseTotal.Add(base.Mul(qty))
		baseOriginal = baseOriginal.Add(baseOrig.Mul(qty))
		total = total.Add(price.Mul(qty))
		originalSum = originalSum.Add(origPrice.Mul(qty))

		snap.Items = append(snap.Items, Item{
			LineItem:       li.Clone(),
			Price:          price.InexactFloat64(),
			OriginalPrice:  origPrice.InexactFloat64(),
			CurrencySymbol: cur.Symbol,
		})
	}

	progress := e.tiers.Evaluate(baseTotal)
	gp := GiftProgress{
		CurrentTier:         progress.Current,
		NextTier:            progress.Next,
		ProgressPercentage:  progress.Percentage,
		IsFinalTierUnlocked: progress.FinalUnlocked,
	}

	if progress.Next != nil {
		gp.LocalizedAmountNeededForNextTier = localized(progress.AmountNeededUSD, rate)
		gp.LocalizedNextGiftValue = localized(usd(progress.Next.GiftValueUSD), rate)
	}

	if progress.Current != nil {
		giftUSD := usd(progress.Current.GiftValueUSD)
		giftLocal := giftUSD.Mul(rate)
		baseOriginal = baseOriginal.Add(giftUSD)
		originalSum = originalSum.Add(giftLocal)
		gp.LocalizedCurrentGiftValue = localized(giftUSD, rate)
	}

	snap.TotalPrice = total.InexactFloat64()
	snap.OriginalTotalPrice = originalSum.InexactFloat64()
	snap.BaseTotalPriceUSD = baseTotal.InexactFloat64()
	snap.BaseOriginalTotalPriceUSD = baseOriginal.InexactFloat64()
	snap.GiftProgress = gp
	return snap
}

func localized(usd, rate decimal.Decimal) *float64 {
	v := usd.Mul(rate).InexactFloat64()
	return &v
}
