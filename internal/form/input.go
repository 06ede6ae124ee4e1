package form

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
)

var (
	ErrEmpty       = errors.New("empty value")
	ErrNotNumber   = errors.New("not a number")
	ErrNotPositive = errors.New("must be positive")
	ErrDateWindow  = errors.New("date out of allowed window")
)

// KitchenBackDays — расход кухни можно внести не раньше чем за 3 дня.
const KitchenBackDays = 3

// Digits оставляет только цифры ("150 000 сум" → "150000").
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Amount — целая положительная сумма из произвольного ввода.
func Amount(s string) (int64, error) {
	d := Digits(s)
	if d == "" {
		return 0, ErrEmpty
	}
	n, err := strconv.ParseInt(d, 10, 64)
	if err != nil {
		return 0, ErrNotNumber
	}
	if n <= 0 {
		return 0, ErrNotPositive
	}
	return n, nil
}

// Decimal — положительное дробное (курс: "12 650,50").
func Decimal(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == ',' {
			return '.'
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotNumber
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNotPositive
	}
	return d, nil
}

// Optional — пустая строка/прочерк превращаются в nil (поле не отправляется).
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "—" {
		return nil
	}
	return &s
}

// Date разбирает дату и возвращает её в формате CRUD (ГГГГ-ММ-ДД).
func Date(s string, loc *time.Location) (string, error) {
	t, err := api.ParseUserDate(s, loc)
	if err != nil {
		return "", err
	}
	return api.FormatCRUD(t), nil
}

// KitchenDate — дата расхода кухни в окне [сегодня-3; сегодня].
func KitchenDate(s string, now time.Time) (string, error) {
	t, err := api.ParseUserDate(s, now.Location())
	if err != nil {
		return "", err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if t.After(today) || t.Before(today.AddDate(0, 0, -KitchenBackDays)) {
		return "", ErrDateWindow
	}
	return api.FormatCRUD(t), nil
}

// Choice проверяет, что s — целое из допустимого набора.
func Choice(s string, allowed ...int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	for _, a := range allowed {
		if a == n {
			return n, true
		}
	}
	return 0, false
}
