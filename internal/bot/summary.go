package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/money"
)

func (b *Bot) showRate(ctx context.Context, chatID int64, editMsgID *int) {
	var text string
	r, err := b.rates.Get(ctx)
	if err != nil {
		b.log.Warn("load dollar rate", "err", err)
		text = "💵 Курс доллара\n\n" + errorText(err)
	} else {
		text = "💵 Курс доллара: " + money.Format(r.DollarRate) + " сум"
		if r.UpdatedAt != "" {
			text += "\nОбновлён: " + api.HumanDate(r.UpdatedAt)
		}
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✏️ Изменить курс", "rate:edit"),
	))
	mid := b.show(chatID, editMsgID, text, &kb)
	b.setState(ctx, chatID, dialog.StateIdle, dialog.Payload{keyMid: mid})
}

// showSummary — доступный остаток кассы и текущий курс.
func (b *Bot) showSummary(ctx context.Context, chatID int64) {
	var sb strings.Builder
	sb.WriteString("📋 Сводка\n")

	if av, err := b.balance.Available(ctx); err != nil {
		b.log.Warn("load available balance", "err", err)
		sb.WriteString("\nОстаток кассы: " + api.UserMessage(err))
	} else {
		sb.WriteString("\nОстаток кассы: " + money.Format(av.AvailableBalance) + " сум")
	}
	if r, err := b.rates.Get(ctx); err != nil {
		b.log.Warn("load dollar rate", "err", err)
		sb.WriteString("\nКурс доллара: " + api.UserMessage(err))
	} else {
		sb.WriteString("\nКурс доллара: " + money.Format(r.DollarRate) + " сум")
	}
	b.reply(chatID, sb.String())
}

// serverAmount итог в том виде, как его прислал сервер; «—», если его нет.
func serverAmount(v decimal.NullDecimal) string {
	if !v.Valid {
		return "—"
	}
	return money.Format(v.Decimal)
}

// pay:read:<arrivalID> — приход, его позиции и история оплат.
func (b *Bot) onPaymentDetail(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID
	id, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "pay:read:"), 10, 64)
	if err != nil || id <= 0 {
		b.answerCallback(cb, "Некорректные данные", true)
		return
	}
	d, err := b.payments.Read(ctx, id)
	if api.IsNotFound(err) {
		b.answerCallback(cb, "Приход не найден", true)
		return
	}
	if err != nil {
		b.log.Warn("read arrival payments", "arrival_id", id, "err", err)
		b.answerCallback(cb, api.UserMessage(err), true)
		return
	}

	back := api.ResPayments
	if res, _ := dialog.GetString(b.state(ctx, chatID).Payload, keyRes); res != "" {
		if _, ok := b.screens[res]; ok {
			back = res
		}
	}

	var sb strings.Builder
	sb.WriteString(arrivalCard(d.Arrival))
	if len(d.Items) > 0 {
		sb.WriteString("\n\nПозиции:")
		for _, it := range d.Items {
			sb.WriteString(fmt.Sprintf("\n• %s — %s %s × %s = %s",
				it.MaterialName, it.Quantity.String(), it.Unit, money.Format(it.Price), money.Format(it.Total)))
		}
	}
	sb.WriteString("\n\nОплаты:")
	if len(d.Payments) == 0 {
		sb.WriteString(" пока нет")
	}
	for _, p := range d.Payments {
		sb.WriteString("\n• " + paymentRow(p))
	}
	sb.WriteString("\n\nОплачено: " + serverAmount(d.TotalPaid))
	sb.WriteString("\nОстаток долга: " + serverAmount(d.Remaining))

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ К списку", "ls:"+back+":back"),
	))
	b.show(chatID, &mid, truncate(sb.String(), 4000), &kb)
	b.answerCallback(cb, "", false)
}
