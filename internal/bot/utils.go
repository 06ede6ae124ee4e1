package bot

import (
	"sort"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/form"
)

/*** HELPERS ***/

func (b *Bot) send(msg tgbotapi.Chattable) tgbotapi.Message {
	m, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("send failed", "err", err)
	}
	return m
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	if _, err := b.api.Request(resp); err != nil {
		b.log.Warn("answer callback failed", "err", err)
	}
}

// show редактирует сообщение editMsgID или отправляет новое; возвращает id
// сообщения с экраном.
func (b *Bot) show(chatID int64, editMsgID *int, text string, kb *tgbotapi.InlineKeyboardMarkup) int {
	if editMsgID != nil {
		if kb == nil {
			kb = &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		}
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, *editMsgID, text, *kb))
		return *editMsgID
	}
	m := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		m.ReplyMarkup = *kb
	}
	return b.send(m).MessageID
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	b.show(chatID, &messageID, text, nil)
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// errorText — текст ошибки для чата; сырое тело ответа пользователю не показываем.
func errorText(err error) string {
	return "❌ " + api.UserMessage(err)
}

// fieldErrorsText список ошибок формы, по строке на поле.
func fieldErrorsText(fe form.FieldErrors, titles map[string]string) string {
	var sb strings.Builder
	sb.WriteString("⚠️ Проверьте данные:")
	for _, k := range sortedKeys(fe) {
		name := k
		if t, ok := titles[k]; ok {
			name = t
		}
		sb.WriteString("\n— " + name + ": " + fe[k])
	}
	return sb.String()
}

func sortedKeys(fe form.FieldErrors) []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncate обрезает подпись кнопки по рунам.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

// clearPrevStep убрать inline-кнопки у прошлого шага, если он был
func (b *Bot) clearPrevStep(chatID int64, p map[string]any) {
	v, ok := p[keyMid]
	if !ok {
		return
	}
	var mid int
	switch n := v.(type) {
	case float64: // payload хранится через JSON
		mid = int(n)
	case int:
		mid = n
	default:
		return
	}
	rm := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, mid, rm))
}
