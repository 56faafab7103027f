// Package money holds the quote arithmetic: line totals, per-line VAT and the
// per-rate breakdown required on documents mixing several VAT rates.
//
// All amounts are shopspring decimals. Rounding is half up to two places and is
// applied per line, before summation.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

func init() {
	// The SPA reads amounts as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Line is the arithmetic view of a quote line item.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	VATRate   decimal.Decimal // percentage, 0..100
}

// RateTotal aggregates the lines sharing one VAT rate.
type RateTotal struct {
	Rate decimal.Decimal `json:"rate"`
	Base decimal.Decimal `json:"base"`
	Tax  decimal.Decimal `json:"tax"`
}

// Totals is the result of ComputeQuoteTotals.
type Totals struct {
	TotalExclTax decimal.Decimal      `json:"totalExclTax"`
	TotalTax     decimal.Decimal      `json:"totalTax"`
	TotalInclTax decimal.Decimal      `json:"totalInclTax"`
	ByRate       map[string]RateTotal `json:"byRate"`
}

// Round2 rounds half up to 2 decimal places.
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

func clamp(x decimal.Decimal) decimal.Decimal {
	if x.IsNegative() {
		return decimal.Zero
	}
	return x
}

// LineTotal returns round2(quantity * unitPrice). Negative inputs count as zero
// so a half-typed form never yields a negative amount.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(clamp(quantity).Mul(clamp(unitPrice)))
}

// LineTax returns round2(lineExcl * vatRate / 100).
func LineTax(lineExcl, vatRate decimal.Decimal) decimal.Decimal {
	return Round2(clamp(lineExcl).Mul(clamp(vatRate)).Shift(-2))
}

// RateKey is the canonical map key of a VAT rate ("20", "5.5", "0").
func RateKey(rate decimal.Decimal) string {
	return clamp(rate).String()
}

// ComputeQuoteTotals derives the quote totals and the per-rate breakdown.
func ComputeQuoteTotals(lines []Line) Totals {
	sumExcl := decimal.Zero
	sumTax := decimal.Zero
	byRate := make(map[string]RateTotal)

	for _, l := range lines {
		excl := LineTotal(l.Quantity, l.UnitPrice)
		tax := LineTax(excl, l.VATRate)
		sumExcl = sumExcl.Add(excl)
		sumTax = sumTax.Add(tax)

		key := RateKey(l.VATRate)
		rt, ok := byRate[key]
		if !ok {
			rt = RateTotal{Rate: clamp(l.VATRate), Base: decimal.Zero, Tax: decimal.Zero}
		}
		rt.Base = rt.Base.Add(excl)
		rt.Tax = rt.Tax.Add(tax)
		byRate[key] = rt
	}

	excl := Round2(sumExcl)
	tax := Round2(sumTax)
	return Totals{
		TotalExclTax: excl,
		TotalTax:     tax,
		TotalInclTax: Round2(excl.Add(tax)),
		ByRate:       byRate,
	}
}

// Rates returns the breakdown ordered by ascending rate.
func (t Totals) Rates() []RateTotal {
	out := make([]RateTotal, 0, len(t.ByRate))
	for _, rt := range t.ByRate {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rate.LessThan(out[j].Rate) })
	return out
}
