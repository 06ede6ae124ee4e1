package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":          "0",
		"150000":     "150 000",
		"1234567.5":  "1 234 567.50",
		"-2500":      "-2 500",
		"999":        "999",
		"12650.125":  "12 650.13",
		"1000000000": "1 000 000 000",
	}
	for in, want := range cases {
		assert.Equal(t, want, Format(decimal.RequireFromString(in)), in)
	}
}

func TestPaymentMethodJSON(t *testing.T) {
	var v struct {
		A PaymentMethod `json:"a"`
		B PaymentMethod `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":2,"b":"3"}`), &v))
	assert.Equal(t, MethodCard, v.A)
	assert.Equal(t, MethodTransfer, v.B)
	assert.Equal(t, "Перечисление", v.B.String())
	assert.Equal(t, "—", PaymentMethod(9).String())
}

func TestCashType(t *testing.T) {
	assert.Equal(t, "сум", CashSum.String())
	assert.Equal(t, "$", CashDollar.String())
}
