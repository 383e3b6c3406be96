// Package currency holds the country to currency mapping, the USD exchange
// rates and the locale-aware price formatting used by the cart.
package currency

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed currencies.yaml
var embeddedTable []byte

// Info describes a currency as shown to buyers.
type Info struct {
	Code   string `yaml:"code" json:"code"`
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name"`
}

// USD is used when neither the country nor the configured default resolve.
var USD = Info{Code: "USD", Symbol: "$", Name: "US Dollar"}

// Data is the on-disk shape of a currency table.
type Data struct {
	Default    string             `yaml:"default"`
	Currencies map[string]Info    `yaml:"currencies"`
	Countries  map[string]string  `yaml:"countries"`
	Rates      map[string]float64 `yaml:"rates"`
}

// Table resolves currencies and exchange rates. It is read-only after
// construction and safe for concurrent use.
type Table struct {
	defaultCode string
	currencies  map[string]Info
	countries   map[string]string
	rates       map[string]decimal.Decimal
}

// New builds a table from decoded data. Keys are upper-cased. Non-finite
// rates are dropped, so those currencies take the missing-rate path.
func New(d Data) *Table {
	t := &Table{
		defaultCode: strings.ToUpper(strings.TrimSpace(d.Default)),
		currencies:  make(map[string]Info, len(d.Currencies)),
		countries:   make(map[string]string, len(d.Countries)),
		rates:       make(map[string]decimal.Decimal, len(d.Rates)),
	}
	if t.defaultCode == "" {
		t.defaultCode = USD.Code
	}

	for code, info := range d.Currencies {
		code = strings.ToUpper(code)
		info.Code = code
		t.currencies[code] = info
	}
	for country, code := range d.Countries {
		t.countries[strings.ToUpper(country)] = strings.ToUpper(code)
	}
	for code, rate := range d.Rates {
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			continue
		}
		t.rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return t
}

// Load decodes a YAML currency table.
func Load(r io.Reader) (*Table, error) {
	var d Data
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding currency table: %w", err)
	}
	for code, rate := range d.Rates {
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("currency table: rate for %s is not a finite number", code)
		}
	}
	return New(d), nil
}

// LoadFile reads a YAML currency table from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening currency table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Embedded returns the table compiled into the binary.
func Embedded() (*Table, error) {
	return Load(bytes.NewReader(embeddedTable))
}

// Default returns the configured fallback currency.
func (t *Table) Default() Info {
	if info, ok := t.currencies[t.defaultCode]; ok {
		return info
	}
	if t.defaultCode == USD.Code {
		return USD
	}
	return Info{Code: t.defaultCode, Symbol: t.defaultCode + " ", Name: t.defaultCode}
}

// ForCountry returns the currency for an ISO 3166 country code. The bool is
// false when the country is unknown and the default currency was returned.
func (t *Table) ForCountry(country string) (Info, bool) {
	code, ok := t.countries[strings.ToUpper(strings.TrimSpace(country))]
	if !ok {
		return t.Default(), false
	}
	info, ok := t.currencies[code]
	if !ok {
		return t.Default(), false
	}
	return info, true
}

// Rate returns how many units of the currency one USD buys.
func (t *Table) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := t.rates[strings.ToUpper(code)]
	return rate, ok
}

// Countries lists the known country codes in sorted order.
func (t *Table) Countries() []string {
	out := make([]string, 0, len(t.countries))
	for c := range t.countries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
