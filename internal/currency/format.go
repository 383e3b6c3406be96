package currency

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/message"
)

// Scale returns the number of minor digits shown for a currency, taken
// from CLDR (2 for EUR, 0 for JPY). Unknown codes use 2.
func Scale(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Format renders an amount for display: the currency symbol followed by
// the number written with the locale's digit grouping and decimal mark.
func Format(amount float64, info Info, locale string) string {
	p := message.NewPrinter(ParseLocale(locale))
	verb := fmt.Sprintf("%%.%df", Scale(info.Code))
	if amount < 0 {
		return "-" + info.Symbol + p.Sprintf(verb, -amount)
	}
	return info.Symbol + p.Sprintf(verb, amount)
}
