package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/listing"
)

// Кнопки нижней панели.
const (
	menuBalance   = "Касса"
	menuArrivals  = "Приходы"
	menuPayments  = "Оплаты"
	menuIssues    = "Выдача материалов"
	menuWriteOffs = "Списания"
	menuKitchen   = "Кухня"
	menuRate      = "Курс доллара"
	menuSummary   = "Сводка"
)

// menuResources — кнопка меню → экран списка.
var menuResources = map[string]string{
	menuBalance:   api.ResBalance,
	menuArrivals:  api.ResArrivals,
	menuPayments:  api.ResPayments,
	menuIssues:    api.ResIssues,
	menuWriteOffs: api.ResWriteOffs,
	menuKitchen:   api.ResKitchen,
}

func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(menuBalance), tgbotapi.NewKeyboardButton(menuArrivals)},
			{tgbotapi.NewKeyboardButton(menuPayments), tgbotapi.NewKeyboardButton(menuIssues)},
			{tgbotapi.NewKeyboardButton(menuWriteOffs), tgbotapi.NewKeyboardButton(menuKitchen)},
			{tgbotapi.NewKeyboardButton(menuRate), tgbotapi.NewKeyboardButton(menuSummary)},
		},
	}
}

func navRow(back bool, cancel bool) []tgbotapi.InlineKeyboardButton {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "nav:back"))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", "nav:cancel"))
	}
	return row
}

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(navRow(back, cancel))
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📨 Отправить", "rq:send"),
		),
		navRow(false, true),
	)
}

// pagerRow ◀️ 2/5 ▶️; prefix — начало callback, к нему добавляется номер страницы.
// nil, если листать некуда.
func pagerRow(prefix string, st listing.State) []tgbotapi.InlineKeyboardButton {
	if !st.HasPrev() && !st.HasNext() {
		return nil
	}
	total := st.TotalPages
	if total < st.Page {
		total = st.Page
	}
	row := []tgbotapi.InlineKeyboardButton{}
	if st.HasPrev() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("◀️", fmt.Sprintf("%s%d", prefix, st.Page-1)))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", st.Page, total), "noop"))
	if st.HasNext() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️", fmt.Sprintf("%s%d", prefix, st.Page+1)))
	}
	return row
}
