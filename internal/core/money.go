// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing goes through shopspring/decimal
// so that "150", "150.5" and "150,50" all land on the same value, and
// rendering uses the pt-BR number format (R$ 1.234,56).
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// ParseAmount converts a decimal string to cents with half-up rounding.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. Without
// a comma, dots that split the number into groups of exactly three digits are
// thousands separators, as a pt-BR user types them. An empty string is zero,
// which is the form default. Negative values are rejected with
// ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12,345") -> 1235, nil
//	ParseAmount("1.234")  -> 123400, nil
//	ParseAmount("")       -> 0, nil
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, nil
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	// pt-BR grouping: "1.234,56"
	if i := strings.LastIndex(s, ","); i >= 0 && strings.Count(s, ",") == 1 && i > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s[:i], ".", "") + "." + s[i+1:]
	} else if !strings.Contains(s, ",") && dotGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

const maxCents = 1<<53 - 1

var dotGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// Decimal returns the amount as a decimal in reais.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Reais returns the amount as a float64 for display and spreadsheet cells.
// Use cents for arithmetic.
func (m Money) Reais() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// BRL renders the amount as "R$ 1.234,56".
func (m Money) BRL() string {
	return brl.Sprintf("R$ %.2f", m.Reais())
}

// BRLWhole renders the amount rounded to whole reais, "R$ 1.235".
func (m Money) BRLWhole() string {
	return brl.Sprintf("R$ %.0f", m.Reais())
}

// FormValue renders the amount the way the add form expects it back ("150,00").
func (m Money) FormValue() string {
	return strings.Replace(m.Decimal().StringFixed(2), ".", ",", 1)
}
