// Package units converts between purchase and recipe units of measure.
// Conversions are scalar: every known unit maps to a multiplier into its
// family's canonical unit (grams for weight, millilitres for volume,
// pieces for count).
package units

import "github.com/shopspring/decimal"

// Converter holds an immutable unit multiplier table. The zero value is
// not usable; construct with NewConverter or Default.
type Converter struct {
	multipliers map[string]decimal.Decimal
}

// DefaultTable is the factor table for the units the kitchen actually
// uses. Unknown units fall back to a factor of 1, so a custom unit
// behaves as its own canonical unit.
func DefaultTable() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"kg":     decimal.NewFromInt(1000),
		"g":      decimal.NewFromInt(1),
		"mg":     decimal.NewFromFloat(0.001),
		"liter":  decimal.NewFromInt(1000),
		"ltr":    decimal.NewFromInt(1000),
		"ml":     decimal.NewFromInt(1),
		"pcs":    decimal.NewFromInt(1),
		"pack":   decimal.NewFromInt(1),
		"bottle": decimal.NewFromInt(1),
		"box":    decimal.NewFromInt(1),
		"dozen":  decimal.NewFromInt(12),
	}
}

func NewConverter(table map[string]decimal.Decimal) *Converter {
	m := make(map[string]decimal.Decimal, len(table))
	for unit, factor := range table {
		m[unit] = factor
	}
	return &Converter{multipliers: m}
}

func Default() *Converter {
	return NewConverter(DefaultTable())
}

// Factor returns the multiplier from unit into its canonical unit.
// Unrecognized units get a factor of 1.
func (c *Converter) Factor(unit string) decimal.Decimal {
	if f, ok := c.multipliers[unit]; ok {
		return f
	}
	return decimal.NewFromInt(1)
}

// ToCanonical converts qty expressed in unit into the canonical unit.
func (c *Converter) ToCanonical(qty decimal.Decimal, unit string) decimal.Decimal {
	return qty.Mul(c.Factor(unit))
}

// FromCanonical converts qty expressed in the canonical unit into unit.
func (c *Converter) FromCanonical(qty decimal.Decimal, unit string) decimal.Decimal {
	return qty.Div(c.Factor(unit))
}

// Convert re-expresses qty from one unit into another. Both units are
// assumed to share a canonical unit; there is no dimension check, so
// converting kg into ml silently treats both as canonical multiples.
func (c *Converter) Convert(qty decimal.Decimal, from, to string) decimal.Decimal {
	return c.FromCanonical(c.ToCanonical(qty, from), to)
}
