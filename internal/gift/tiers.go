// Package gift evaluates free-gift spending tiers against a USD subtotal.
package gift

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tiers.yaml
var embeddedTiers []byte

// Tier is a spending threshold that unlocks a free gift.
type Tier struct {
	ID           string  `yaml:"id" json:"id"`
	Name         string  `yaml:"name" json:"name"`
	ThresholdUSD float64 `yaml:"thresholdUSD" json:"thresholdUSD"`
	GiftValueUSD float64 `yaml:"giftValueUSD" json:"giftValueUSD"`
}

// Table is an ordered list of tiers with strictly increasing thresholds.
// The order is an authoring invariant of the data and is not checked.
type Table []Tier

// Progress is the buyer's position relative to the tier table, in USD.
type Progress struct {
	Current         *Tier
	Next            *Tier
	Percentage      float64
	AmountNeededUSD decimal.Decimal
	FinalUnlocked   bool
}

var hundred = decimal.NewFromInt(100)

// Evaluate finds the held tier (highest threshold not above subtotal) and
// the progress toward the tier after it.
func (t Table) Evaluate(subtotalUSD decimal.Decimal) Progress {
	var p Progress
	if len(t) == 0 {
		return p
	}

	held := -1
	for i := len(t) - 1; i >= 0; i-- {
		if amount(t[i].ThresholdUSD).LessThanOrEqual(subtotalUSD) {
			held = i
			break
		}
	}

	if held >= 0 {
		current := t[held]
		p.Current = &current
	}

	if held == len(t)-1 {
		p.FinalUnlocked = true
		p.Percentage = 100
		return p
	}

	next := t[held+1]
	p.Next = &next

	lower := decimal.Zero
	if p.Current != nil {
		lower = amount(p.Current.ThresholdUSD)
	}
	upper := amount(next.ThresholdUSD)

	needed := upper.Sub(subtotalUSD)
	if needed.IsNegative() {
		needed = decimal.Zero
	}
	p.AmountNeededUSD = needed

	span := upper.Sub(lower)
	if !span.IsPositive() {
		return p
	}
	pct := subtotalUSD.Sub(lower).Div(span).Mul(hundred)
	switch {
	case pct.IsNegative():
		pct = decimal.Zero
	case pct.GreaterThan(hundred):
		pct = hundred
	}
	p.Percentage = pct.InexactFloat64()
	return p
}

// Load decodes a YAML tier table of the form "tiers: [...]".
func Load(r io.Reader) (Table, error) {
	var doc struct {
		Tiers Table `yaml:"tiers"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding gift tiers: %w", err)
	}
	for _, t := range doc.Tiers {
		if !finite(t.ThresholdUSD) || !finite(t.GiftValueUSD) {
			return nil, fmt.Errorf("gift tier %q: amounts must be finite numbers", t.ID)
		}
	}
	return doc.Tiers, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// amount treats non-finite values as zero.
func amount(f float64) decimal.Decimal {
	if !finite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// LoadFile reads a YAML tier table from disk.
func LoadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gift tiers: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Embedded returns the tier table compiled into the binary.
func Embedded() (Table, error) {
	return Load(bytes.NewReader(embeddedTiers))
}
