package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAccountCode(t *testing.T) {
	code, msg := validateAccountCode("  abc-123_x ")
	assert.Empty(t, msg)
	assert.Equal(t, "ABC-123_X", code)

	_, msg = validateAccountCode("")
	assert.Equal(t, "O Código da conta é obrigatório.", msg)

	_, msg = validateAccountCode("   ")
	assert.Equal(t, "O Código da conta é obrigatório.", msg)

	_, msg = validateAccountCode(strings.Repeat("A", 51))
	assert.Equal(t, "Código da conta muito longo (máx 50 caracteres).", msg)

	code, msg = validateAccountCode(strings.Repeat("A", 50))
	assert.Empty(t, msg)
	assert.Len(t, code, 50)

	for _, in := range []string{"AB C", "AB!", "A.B", "A/B", "---", "__"} {
		_, msg := validateAccountCode(in)
		assert.Equal(t, "Código deve conter apenas letras, números, hífen e underscore.", msg, "input %q", in)
	}
}

func TestValidateDescription(t *testing.T) {
	d, msg := validateDescription("  Caixa loja  ")
	assert.Empty(t, msg)
	assert.Equal(t, "Caixa loja", d)

	_, msg = validateDescription("   ")
	assert.Equal(t, "A Descrição da conta é obrigatória.", msg)

	_, msg = validateDescription(strings.Repeat("x", 201))
	assert.Equal(t, "Descrição muito longa (máx 200 caracteres).", msg)

	d, msg = validateDescription(strings.Repeat("x", 200))
	assert.Empty(t, msg)
	assert.Len(t, d, 200)
}

func TestValidateAmount(t *testing.T) {
	v, msg := validateAmount("1.234,56")
	assert.Empty(t, msg)
	assert.Equal(t, "1234.56", v.StringFixed(2))

	_, msg = validateAmount("")
	assert.Equal(t, "O campo Valor é obrigatório.", msg)

	_, msg = validateAmount("abc")
	assert.Equal(t, "Valor deve conter números.", msg)

	_, msg = validateAmount("99999999999999,99")
	assert.Equal(t, "Valor fora do intervalo permitido.", msg)
}
