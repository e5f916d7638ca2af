package main

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"livrocaixa/pkg/money"

	"github.com/shopspring/decimal"
)

// validateAmount parses a Brazilian-format amount, returning the quantized
// value or a user-facing message.
func validateAmount(raw string) (decimal.Decimal, string) {
	d, err := money.Parse(raw)
	if err != nil {
		return decimal.Decimal{}, err.Error()
	}
	return d, ""
}

// validateAccountCode normalizes an account code: trimmed, upper-cased, at
// most 50 characters, alphanumeric besides "-" and "_".
func validateAccountCode(raw string) (string, string) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", "O Código da conta é obrigatório."
	}
	if utf8.RuneCountInString(code) > 50 {
		return "", "Código da conta muito longo (máx 50 caracteres)."
	}
	stripped := strings.NewReplacer("-", "", "_", "").Replace(code)
	if stripped == "" || !isAlnum(stripped) {
		return "", "Código deve conter apenas letras, números, hífen e underscore."
	}
	return code, ""
}

// validateDescription trims and bounds an account description.
func validateDescription(raw string) (string, string) {
	description := strings.TrimSpace(raw)
	if description == "" {
		return "", "A Descrição da conta é obrigatória."
	}
	if utf8.RuneCountInString(description) > 200 {
		return "", "Descrição muito longa (máx 200 caracteres)."
	}
	return description, ""
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
