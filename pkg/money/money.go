// Package money parses and formats monetary amounts in the Brazilian locale
// format ("1.234,56"), backed by fixed-point decimals quantized to two places.
package money

import (
	"errors"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// User-facing validation errors. The messages are shown verbatim in forms.
var (
	ErrRequired = errors.New("O campo Valor é obrigatório.")
	ErrNoDigits = errors.New("Valor deve conter números.")
	ErrFormat   = errors.New("Formato de valor inválido. Use 1.234,56")
	ErrRange    = errors.New("Valor fora do intervalo permitido.")
)

// Max is the largest absolute amount accepted, matching NUMERIC(14,2).
var Max = decimal.RequireFromString("999999999999.99")

// Parse converts free-form user input to a decimal quantized to two places.
// It strips the "R$" marker and spaces, drops "." thousands separators and
// treats "," as the decimal separator. Rounding is banker's rounding, so the
// stored value is a quantization of the input, never a truncation.
func Parse(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Decimal{}, ErrRequired
	}
	n := strings.NewReplacer("R$", "", " ", "", ".", "").Replace(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, ",", ".")
	if !strings.ContainsAny(n, "0123456789") {
		return decimal.Decimal{}, ErrNoDigits
	}
	d, err := decimal.NewFromString(n)
	if err != nil {
		return decimal.Decimal{}, ErrFormat
	}
	d = d.RoundBank(2)
	if d.Abs().GreaterThan(Max) {
		return decimal.Decimal{}, ErrRange
	}
	return d, nil
}

var brl = gomoney.Formatter{
	Fraction: 2,
	Decimal:  ",",
	Thousand: ".",
	Grapheme: "R$",
	Template: "$ 1",
}

// Format renders d as Brazilian currency: fixed two decimals, "." thousands
// separator, "," decimal separator, "R$ " prefix. The sign goes after the
// prefix ("R$ -50,00"). Parse(Format(d)) == d for every value Parse accepts.
func Format(d decimal.Decimal) string {
	s := brl.Format(d.Abs().Shift(2).IntPart())
	if d.IsNegative() {
		s = strings.Replace(s, "R$ ", "R$ -", 1)
	}
	return s
}
