package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/domain/arrivals"
	"github.com/Spok95/sklad-bot/internal/domain/balance"
	"github.com/Spok95/sklad-bot/internal/domain/issues"
	"github.com/Spok95/sklad-bot/internal/domain/kitchen"
	"github.com/Spok95/sklad-bot/internal/domain/money"
	"github.com/Spok95/sklad-bot/internal/domain/payments"
	"github.com/Spok95/sklad-bot/internal/domain/writeoffs"
	"github.com/Spok95/sklad-bot/internal/export"
)

// Формы и сценарии создания.
const (
	formBalance  = "balance"
	formArrival  = "arrival"
	formPayment  = "payment"
	formWriteOff = "writeoff"
	formKitchen  = "kitchen"
	formRate     = "rate"
	flowIssuance = "issuance"
)

func (b *Bot) buildScreens() map[string]screen {
	noReason := func(del func(context.Context, int64) error) func(context.Context, int64, *string) error {
		return func(ctx context.Context, id int64, _ *string) error { return del(ctx, id) }
	}

	all := []screen{
		&resource[balance.Balance]{
			tag: api.ResBalance, title: "Касса", src: b.balance, limit: b.limit,
			id:     func(v balance.Balance) int64 { return v.ID },
			row:    balanceRow,
			detail: balanceCard,
			del:    noReason(b.balance.Delete),
			create: formBalance,
			export: &export.Kassabank,
		},
		&resource[arrivals.Arrival]{
			tag: api.ResArrivals, title: "Приходы", src: b.arrivals, limit: b.limit,
			id:     func(v arrivals.Arrival) int64 { return v.ArrivalID },
			row:    arrivalRow,
			detail: arrivalCard,
			extra: func(v arrivals.Arrival) [][]tgbotapi.InlineKeyboardButton {
				return [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("💳 Оплаты по приходу", fmt.Sprintf("pay:read:%d", v.ArrivalID)),
				)}
			},
			del:    noReason(b.arrivals.Delete),
			create: formArrival,
			export: &export.Arrivals,
		},
		&resource[payments.Payment]{
			tag: api.ResPayments, title: "Оплаты", src: b.payments, limit: b.limit,
			id:     func(v payments.Payment) int64 { return v.PaymentID },
			row:    paymentRow,
			detail: paymentCard,
			extra: func(v payments.Payment) [][]tgbotapi.InlineKeyboardButton {
				return [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("📄 Приход и история оплат", fmt.Sprintf("pay:read:%d", v.ArrivalID)),
				)}
			},
			del:    b.payments.Delete,
			reason: true,
			create: formPayment,
			export: &export.Payments,
		},
		&resource[issues.Issue]{
			tag: api.ResIssues, title: "Выдача материалов", src: b.issues, limit: b.limit,
			id:     func(v issues.Issue) int64 { return v.ID },
			row:    issueRow,
			detail: issueCard,
			extra: func(v issues.Issue) [][]tgbotapi.InlineKeyboardButton {
				return [][]tgbotapi.InlineKeyboardButton{tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("↩️ Возврат", fmt.Sprintf("ret:open:%d", v.ID)),
				)}
			},
			del:    noReason(b.issues.Delete),
			create: flowIssuance,
			export: &export.Issues,
		},
		&resource[writeoffs.WriteOff]{
			tag: api.ResWriteOffs, title: "Списания", src: b.writeoffs, limit: b.limit,
			id:     func(v writeoffs.WriteOff) int64 { return v.ID },
			row:    writeOffRow,
			detail: writeOffCard,
			del:    noReason(b.writeoffs.Delete),
			create: formWriteOff,
			export: &export.WriteOffs,
		},
		&resource[kitchen.Expense]{
			tag: api.ResKitchen, title: "Расходы кухни", src: b.kitchen, limit: b.limit,
			id:     func(v kitchen.Expense) int64 { return v.ExpenseID },
			row:    kitchenRow,
			detail: kitchenCard,
			del:    noReason(b.kitchen.Delete),
			create: formKitchen,
			export: &export.Kitchen,
		},
	}

	out := make(map[string]screen, len(all))
	for _, s := range all {
		out[s.Tag()] = s
	}
	return out
}

func commentLine(c *string) string {
	if c == nil || strings.TrimSpace(*c) == "" {
		return ""
	}
	return "\nКомментарий: " + *c
}

func balanceRow(v balance.Balance) string {
	return fmt.Sprintf("%s · %s · %s", api.HumanDate(v.CreatedAt), money.Format(v.PaymentAmount), v.PaymentMethod)
}

func balanceCard(v balance.Balance) string {
	return fmt.Sprintf("💰 Касса #%d\nСумма: %s\nСпособ: %s\nДата: %s\nКто внёс: %s%s",
		v.ID, money.Format(v.PaymentAmount), v.PaymentMethod, api.HumanDate(v.CreatedAt),
		orDash(v.UserName), commentLine(v.Comments))
}

func arrivalRow(v arrivals.Arrival) string {
	return fmt.Sprintf("#%d · %s · %s", v.ArrivalID, api.HumanDate(v.CreatedAt), money.Format(v.ArrivalAmount))
}

func arrivalCard(v arrivals.Arrival) string {
	s := fmt.Sprintf("📦 Приход #%d\nСумма: %s\nСпособ оплаты: %s\nКурс $ на момент прихода: %s\nДата: %s\nКто внёс: %s",
		v.ArrivalID, money.Format(v.ArrivalAmount), v.PaymentMethod, money.Format(v.MomentUSDRate),
		api.HumanDate(v.CreatedAt), orDash(v.UserName))
	if v.SupplierName != "" {
		s += "\nПоставщик: " + v.SupplierName
	}
	return s + commentLine(v.Comments)
}

func paymentRow(v payments.Payment) string {
	return fmt.Sprintf("%s · %s %s · %s", api.HumanDate(v.CreatedAt), money.Format(v.PaymentAmount), v.CashType, orDash(v.SupplierName))
}

func paymentCard(v payments.Payment) string {
	return fmt.Sprintf("💳 Оплата #%d\nПриход: #%d\nПоставщик: %s\nСумма: %s %s\nСпособ: %s\n"+
		"Курс $ при оплате: %s\nКурс $ при приходе: %s\nДата: %s%s",
		v.PaymentID, v.ArrivalID, orDash(v.SupplierName), money.Format(v.PaymentAmount), v.CashType,
		v.PaymentMethod, money.Format(v.DollarRate), money.Format(v.ArrivalDollarRate),
		api.HumanDate(v.CreatedAt), commentLine(v.Comments))
}

func issueRow(v issues.Issue) string {
	return fmt.Sprintf("#%d · %s · %s · %s", v.ID, api.HumanDate(v.CreatedAt), orDash(v.ForemanName), v.ReturnType)
}

func issueCard(v issues.Issue) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧰 Выдача #%d\nПрораб: %s\nВид: %s\nДата: %s",
		v.ID, orDash(v.ForemanName), v.ReturnType, api.HumanDate(v.CreatedAt)))
	if v.ExpectedReturnDate != nil {
		sb.WriteString("\nВернуть до: " + api.HumanDate(*v.ExpectedReturnDate))
	}
	sb.WriteString(commentLine(v.Comments))
	if len(v.Items) > 0 {
		sb.WriteString("\n\nПозиции:")
		for _, it := range v.Items {
			sb.WriteString("\n" + issueItemLine(it))
		}
	}
	return sb.String()
}

func issueItemLine(it issues.Item) string {
	mark := "⏳"
	if it.Returned {
		mark = "✅"
	}
	line := fmt.Sprintf("%s %s — %s %s", mark, it.MaterialName, it.Quantity.String(), it.Unit)
	if it.ConditionType != 0 {
		line += " (" + it.ConditionType.String() + ")"
	}
	if it.Returned && it.ReturnDate != nil {
		line += ", возвращено " + api.HumanDate(*it.ReturnDate)
	}
	return strings.TrimSpace(line)
}

func writeOffRow(v writeoffs.WriteOff) string {
	return fmt.Sprintf("%s · %s · %s · %s", api.HumanDate(v.CreatedAt), v.MaterialName, v.Amount.String(), v.ReasonType)
}

func writeOffCard(v writeoffs.WriteOff) string {
	s := fmt.Sprintf("🗑 Списание #%d\nМатериал: %s\nКоличество: %s %s\nПричина: %s\nДата: %s",
		v.ID, orDash(v.MaterialName), v.Amount.String(), v.Unit, v.ReasonType, api.HumanDate(v.CreatedAt))
	if v.ObjectName != "" {
		s += "\nОбъект: " + v.ObjectName
	}
	return s + commentLine(v.Comments)
}

func kitchenRow(v kitchen.Expense) string {
	return fmt.Sprintf("%s · %s · %d чел.", api.HumanDate(v.ExpenseDate), orDash(v.CategoryName), v.NumberOfPeople)
}

func kitchenCard(v kitchen.Expense) string {
	return fmt.Sprintf("🍲 Расход кухни #%d\nКатегория: %s\nЧеловек: %d\nДата: %s%s",
		v.ExpenseID, orDash(v.CategoryName), v.NumberOfPeople, api.HumanDate(v.ExpenseDate), commentLine(v.Comments))
}
