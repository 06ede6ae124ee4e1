package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/domain/arrivals"
	"github.com/Spok95/sklad-bot/internal/domain/balance"
	"github.com/Spok95/sklad-bot/internal/domain/kitchen"
	"github.com/Spok95/sklad-bot/internal/domain/money"
	"github.com/Spok95/sklad-bot/internal/domain/payments"
	"github.com/Spok95/sklad-bot/internal/domain/writeoffs"
	"github.com/Spok95/sklad-bot/internal/form"
)

func parseAmount(s string, _ time.Time) (string, error) {
	n, err := form.Amount(s)
	if err != nil {
		return "", errors.New("Введите сумму цифрами, больше нуля")
	}
	return strconv.FormatInt(n, 10), nil
}

func parseCount(s string, _ time.Time) (string, error) {
	n, err := form.Amount(s)
	if err != nil {
		return "", errors.New("Введите целое число больше нуля")
	}
	return strconv.FormatInt(n, 10), nil
}

func parseRate(s string, _ time.Time) (string, error) {
	d, err := form.Decimal(s)
	if err != nil {
		return "", errors.New("Введите курс числом, например 12650 или 12650,50")
	}
	return d.String(), nil
}

func parseKitchenDate(s string, now time.Time) (string, error) {
	d, err := form.KitchenDate(s, now)
	switch {
	case errors.Is(err, form.ErrDateWindow):
		return "", fmt.Errorf("Дата должна быть не раньше %s и не позже сегодняшней",
			api.FormatUser(now.AddDate(0, 0, -form.KitchenBackDays)))
	case err != nil:
		return "", errors.New("Введите дату в формате ДД.ММ.ГГГГ")
	}
	return d, nil
}

func todayShortcut(now time.Time) choice {
	return choice{Label: "Сегодня (" + api.FormatUser(now) + ")", Value: api.FormatCRUD(now)}
}

func methodChoices() []choice {
	out := make([]choice, 0, len(money.PaymentMethods))
	for _, m := range money.PaymentMethods {
		out = append(out, choice{Label: m.String(), Value: strconv.Itoa(int(m))})
	}
	return out
}

func reasonChoices() []choice {
	out := make([]choice, 0, len(writeoffs.Reasons))
	for _, r := range writeoffs.Reasons {
		out = append(out, choice{Label: r.String(), Value: strconv.Itoa(int(r))})
	}
	return out
}

func commentField() field {
	return field{Key: "comments", Title: "Комментарий", Prompt: "Комментарий сообщением.", Optional: true}
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func (b *Bot) buildForms() map[string]*formSpec {
	all := []*formSpec{
		{
			ID: formBalance, Title: "💰 Новая запись кассы", List: api.ResBalance,
			Fields: []field{
				{Key: "payment_amount", Title: "Сумма", Prompt: "Введите сумму.", Parse: parseAmount},
				{Key: "payment_method", Title: "Способ оплаты", Prompt: "Выберите способ оплаты:", Kind: fieldChoice, Choices: methodChoices()},
				commentField(),
			},
			Prepare: func(v values, _ time.Time) (func(context.Context) error, form.FieldErrors) {
				req, fe := balance.ParseCreate(v["payment_amount"], v["payment_method"], v["comments"])
				return func(ctx context.Context) error { return b.balance.Create(ctx, req) }, fe
			},
		},
		{
			ID: formArrival, Title: "📦 Новый приход", List: api.ResArrivals,
			Fields: []field{
				{Key: "arrival_amount", Title: "Сумма", Prompt: "Введите сумму прихода.", Parse: parseAmount},
				{Key: "payment_method", Title: "Способ оплаты", Prompt: "Выберите способ оплаты:", Kind: fieldChoice, Choices: methodChoices()},
				commentField(),
			},
			Prepare: func(v values, _ time.Time) (func(context.Context) error, form.FieldErrors) {
				m, _ := strconv.Atoi(v["payment_method"])
				req := arrivals.CreateRequest{
					ArrivalAmount: atoi64(v["arrival_amount"]),
					PaymentMethod: money.PaymentMethod(m),
					Comments:      form.Optional(v["comments"]),
				}
				return func(ctx context.Context) error { return b.arrivals.Create(ctx, req) }, form.Validate(req)
			},
		},
		{
			ID: formPayment, Title: "💳 Новая оплата", List: api.ResPayments,
			Fields: []field{
				{Key: "arrival_id", Title: "Приход", Prompt: "Выберите приход:", Kind: fieldPick, Pick: api.ResArrivals},
				{Key: "payment_amount", Title: "Сумма", Prompt: "Введите сумму оплаты.", Parse: parseAmount},
				{Key: "payment_method", Title: "Способ оплаты", Prompt: "Выберите способ оплаты:", Kind: fieldChoice, Choices: methodChoices()},
				{Key: "cash_type", Title: "Валюта", Prompt: "Выберите валюту:", Kind: fieldChoice, Choices: []choice{
					{Label: "Сум", Value: string(money.CashSum)},
					{Label: "Доллар", Value: string(money.CashDollar)},
				}},
				commentField(),
			},
			Prepare: func(v values, _ time.Time) (func(context.Context) error, form.FieldErrors) {
				m, _ := strconv.Atoi(v["payment_method"])
				req := payments.CreateRequest{
					ArrivalID:     atoi64(v["arrival_id"]),
					PaymentAmount: atoi64(v["payment_amount"]),
					PaymentMethod: money.PaymentMethod(m),
					CashType:      money.CashType(v["cash_type"]),
					Comments:      form.Optional(v["comments"]),
				}
				return func(ctx context.Context) error { return b.payments.Create(ctx, req) }, form.Validate(req)
			},
		},
		{
			ID: formWriteOff, Title: "🗑 Новое списание", List: api.ResWriteOffs,
			Fields: []field{
				{Key: "material_id", Title: "Материал", Prompt: "Выберите материал:", Kind: fieldPick, Pick: api.ResMaterials},
				{Key: "amount", Title: "Количество", Prompt: "Введите количество.", Parse: parseCount},
				{Key: "reason_type", Title: "Причина", Prompt: "Выберите причину:", Kind: fieldChoice, Choices: reasonChoices()},
				commentField(),
			},
			Prepare: func(v values, _ time.Time) (func(context.Context) error, form.FieldErrors) {
				r, _ := strconv.Atoi(v["reason_type"])
				req := writeoffs.CreateRequest{
					MaterialID: atoi64(v["material_id"]),
					Amount:     atoi64(v["amount"]),
					ReasonType: writeoffs.Reason(r),
					Comments:   form.Optional(v["comments"]),
				}
				return func(ctx context.Context) error { return b.writeoffs.Create(ctx, req) }, form.Validate(req)
			},
		},
		{
			ID: formKitchen, Title: "🍲 Новый расход кухни", List: api.ResKitchen,
			Fields: []field{
				{Key: "category_id", Title: "Категория", Prompt: "Выберите категорию:", Kind: fieldPick, Pick: api.ResKitchenCategories},
				{Key: "number_of_people", Title: "Человек", Prompt: "Сколько человек?", Parse: parseCount},
				{Key: "expense_date", Title: "Дата", Prompt: "Дата расхода (ДД.ММ.ГГГГ), не раньше чем 3 дня назад.",
					Parse: parseKitchenDate, Shortcut: todayShortcut},
				commentField(),
			},
			Prepare: func(v values, now time.Time) (func(context.Context) error, form.FieldErrors) {
				people, _ := strconv.Atoi(v["number_of_people"])
				req := kitchen.CreateRequest{
					CategoryID:     atoi64(v["category_id"]),
					NumberOfPeople: people,
					ExpenseDate:    v["expense_date"],
					Comments:       form.Optional(v["comments"]),
				}
				fe := form.Validate(req)
				// окно дат проверяем ещё раз: форма могла висеть со вчера
				if _, err := parseKitchenDate(req.ExpenseDate, now); err != nil && req.ExpenseDate != "" {
					fe = fe.Add("expense_date", err.Error())
				}
				return func(ctx context.Context) error { return b.kitchen.Create(ctx, req) }, fe
			},
		},
		{
			ID: formRate, Title: "💵 Курс доллара",
			Intro: func(ctx context.Context) string {
				r, err := b.rates.Get(ctx)
				if err != nil {
					return "Текущий курс: не удалось получить"
				}
				return "Текущий курс: " + money.Format(r.DollarRate)
			},
			Fields: []field{
				{Key: "dollar_rate", Title: "Новый курс", Prompt: "Введите новый курс доллара.", Parse: parseRate},
			},
			Prepare: func(v values, _ time.Time) (func(context.Context) error, form.FieldErrors) {
				d, err := form.Decimal(v["dollar_rate"])
				if err != nil {
					return nil, form.FieldErrors{"dollar_rate": "Введите курс больше нуля"}
				}
				return func(ctx context.Context) error { return b.rates.Set(ctx, d) }, nil
			},
		},
	}

	out := make(map[string]*formSpec, len(all))
	for _, f := range all {
		out[f.ID] = f
	}
	return out
}
