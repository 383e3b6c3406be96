package currency

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = `
default: USD
currencies:
  usd: { symbol: "$", name: "US Dollar" }
  EUR: { symbol: "€", name: "Euro" }
  XTS: { symbol: "T", name: "Test currency" }
countries:
  us: USD
  DE: EUR
  ZZ: XTS
rates:
  USD: 1
  EUR: 0.93
`

func loadTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := Load(strings.NewReader(testTable))
	require.NoError(t, err)
	return table
}

func TestForCountry(t *testing.T) {
	table := loadTestTable(t)

	tests := []struct {
		country string
		want    string
		known   bool
	}{
		{"DE", "EUR", true},
		{"de", "EUR", true},
		{" US ", "USD", true},
		{"ZZ", "XTS", true},
		{"XX", "USD", false},
		{"", "USD", false},
	}

	for _, tt := range tests {
		info, known := table.ForCountry(tt.country)
		assert.Equal(t, tt.want, info.Code, "country %q", tt.country)
		assert.Equal(t, tt.known, known, "country %q", tt.country)
	}
}

func TestDefaultFallsBackToUSD(t *testing.T) {
	table := New(Data{Default: "USD"})
	assert.Equal(t, USD, table.Default())

	info, known := table.ForCountry("DE")
	assert.False(t, known)
	assert.Equal(t, USD, info)
}

func TestRate(t *testing.T) {
	table := loadTestTable(t)

	rate, ok := table.Rate("eur")
	require.True(t, ok)
	assert.Equal(t, "0.93", rate.String())

	_, ok = table.Rate("XTS")
	assert.False(t, ok)
}

func TestCountriesSorted(t *testing.T) {
	table := loadTestTable(t)
	assert.Equal(t, []string{"DE", "US", "ZZ"}, table.Countries())
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(strings.NewReader("currencies: [oops"))
	assert.Error(t, err)
}

func TestEmbeddedTable(t *testing.T) {
	table, err := Embedded()
	require.NoError(t, err)

	info, known := table.ForCountry("DE")
	require.True(t, known)
	assert.Equal(t, "€", info.Symbol)

	rate, ok := table.Rate(info.Code)
	require.True(t, ok)
	assert.True(t, rate.IsPositive())
}

func TestFormat(t *testing.T) {
	eur := Info{Code: "EUR", Symbol: "€"}
	usd := USD

	assert.Equal(t, "€9.30", Format(9.3, eur, "en-US"))
	assert.Equal(t, "$10.00", Format(10, usd, "en"))
	assert.Equal(t, "$0.00", Format(0, usd, "garbage"))
	assert.Equal(t, "-$1.50", Format(-1.5, usd, "en-US"))
}

func TestScale(t *testing.T) {
	assert.Equal(t, 2, Scale("EUR"))
	assert.Equal(t, 0, Scale("JPY"))
	assert.Equal(t, 2, Scale("not-a-code"))
}

func TestNormalizeLocale(t *testing.T) {
	tests := map[string]string{
		"de_DE.UTF-8": "de-DE",
		"en_US":       "en-US",
		"fr-CA":       "fr-CA",
		"C.UTF-8":     "",
		"POSIX":       "",
		"":            "",
		"!!":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLocale(in), "input %q", in)
	}
}

func TestCountryFromLocale(t *testing.T) {
	c, ok := CountryFromLocale("fr_CA.UTF-8")
	assert.True(t, ok)
	assert.Equal(t, "CA", c)

	_, ok = CountryFromLocale("fr")
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name        string
		env         []string
		wantCountry string
		wantLocale  string
	}{
		{"lang only", []string{"LANG=de_DE.UTF-8"}, "DE", "de-DE"},
		{"lc_all wins", []string{"LANG=de_DE.UTF-8", "LC_ALL=en_GB.UTF-8"}, "GB", "en-GB"},
		{"explicit country", []string{"LANG=en_US.UTF-8", "CART_COUNTRY=fr"}, "FR", "en-US"},
		{"nothing set", nil, "US", "en-US"},
		{"posix locale", []string{"LANG=C"}, "US", "en-US"},
		{"language without region", []string{"LANG=ja"}, "US", "ja"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			country, locale := Detect(EnvLookup(tt.env), "us", "en-US")
			assert.Equal(t, tt.wantCountry, country)
			assert.Equal(t, tt.wantLocale, locale)
		})
	}
}

func TestLoadRejectsNonFiniteRate(t *testing.T) {
	_, err := Load(strings.NewReader("rates:\n  EUR: .nan\n"))
	assert.Error(t, err)
}

func TestNewDropsNonFiniteRate(t *testing.T) {
	table := New(Data{Rates: map[string]float64{"EUR": math.Inf(1), "USD": 1}})

	_, ok := table.Rate("EUR")
	assert.False(t, ok)
	_, ok = table.Rate("USD")
	assert.True(t, ok)
}
