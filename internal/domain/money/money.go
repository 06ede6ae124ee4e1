// Package money — общие для кассы, приходов и оплат перечисления и формат сумм.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
)

type PaymentMethod int

const (
	MethodCash     PaymentMethod = 1
	MethodCard     PaymentMethod = 2
	MethodTransfer PaymentMethod = 3
	MethodOther    PaymentMethod = 4
)

var PaymentMethods = []PaymentMethod{MethodCash, MethodCard, MethodTransfer, MethodOther}

func (m PaymentMethod) String() string {
	switch m {
	case MethodCash:
		return "Наличные"
	case MethodCard:
		return "Карта"
	case MethodTransfer:
		return "Перечисление"
	case MethodOther:
		return "Другое"
	default:
		return "—"
	}
}

func (m *PaymentMethod) UnmarshalJSON(b []byte) error {
	n, err := api.DecodeEnum(b)
	*m = PaymentMethod(n)
	return err
}

// CashType — валюта оплаты.
type CashType string

const (
	CashSum    CashType = "sum"
	CashDollar CashType = "dollar"
)

func (c CashType) String() string {
	switch c {
	case CashSum:
		return "сум"
	case CashDollar:
		return "$"
	default:
		return string(c)
	}
}

// Format 1234567.5 → "1 234 567.50", целые без дробной части.
func Format(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs()

	var s string
	if d.Equal(d.Truncate(0)) {
		s = d.StringFixed(0)
	} else {
		s = d.StringFixed(2)
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString(".")
		b.WriteString(frac)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
