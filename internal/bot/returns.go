package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/domain/issues"
	"github.com/Spok95/sklad-bot/internal/form"
	"github.com/Spok95/sklad-bot/internal/mutation"
)

const (
	keyIssueID  = "issue_id"
	keyRetItem  = "ret_item"
	keyRetName  = "ret_name"
	keyRetCond  = "ret_cond"
	keyRetDate  = "ret_date"
	allReturned = "Все материалы возвращены"
)

var retTitles = map[string]string{
	"condition_type": "Состояние",
	"return_date":    "Дата возврата",
	"condition_note": "Заметка",
}

// showReturnTool — позиции выдачи, ожидающие возврата.
func (b *Bot) showReturnTool(ctx context.Context, chatID int64, editMsgID *int, issueID int64, notice string) {
	p := dialog.Payload{keyRes: api.ResIssues, keyIssueID: issueID}
	items, err := b.issues.Items(ctx, issueID)
	if err != nil {
		b.log.Warn("load issue items", "issue_id", issueID, "err", err)
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ К списку", "ls:"+api.ResIssues+":back"),
		))
		p[keyMid] = b.show(chatID, editMsgID, errorText(err), &kb)
		b.setState(ctx, chatID, dialog.StateRetPick, p)
		return
	}

	var sb strings.Builder
	if notice != "" {
		sb.WriteString(notice + "\n\n")
	}
	pending := issues.Pending(items)
	if len(pending) == 0 {
		sb.WriteString(fmt.Sprintf("↩️ Выдача #%d\n\n%s", issueID, allReturned))
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✖️ Закрыть", "ret:close"),
		))
		p[keyMid] = b.show(chatID, editMsgID, sb.String(), &kb)
		b.setState(ctx, chatID, dialog.StateRetPick, p)
		return
	}

	sb.WriteString(fmt.Sprintf("↩️ Возврат по выдаче #%d\n", issueID))
	for _, it := range items {
		sb.WriteString("\n" + issueItemLine(it))
	}
	sb.WriteString("\n\nВыберите позицию, которую вернули:")

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, it := range pending {
		label := fmt.Sprintf("%s — %s %s", it.MaterialName, it.Quantity.String(), it.Unit)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(strings.TrimSpace(label), 60), fmt.Sprintf("ret:it:%d", it.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ К списку", "ls:"+api.ResIssues+":back"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	p[keyMid] = b.show(chatID, editMsgID, sb.String(), &kb)
	b.setState(ctx, chatID, dialog.StateRetPick, p)
}

func (b *Bot) retStep(ctx context.Context, chatID int64, editMsgID *int, state dialog.State, p dialog.Payload, text string, rows ...[]tgbotapi.InlineKeyboardButton) {
	name, _ := dialog.GetString(p, keyRetName)
	rows = append(rows, navRow(true, true))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	p[keyMid] = b.show(chatID, editMsgID, "↩️ Возврат: "+name+"\n\n"+text, &kb)
	b.setState(ctx, chatID, state, p)
}

func (b *Bot) askRetCond(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, errText string) {
	row := []tgbotapi.InlineKeyboardButton{}
	for _, c := range issues.Conditions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.String(), fmt.Sprintf("ret:cond:%d", c)))
	}
	text := "Состояние при возврате:"
	if errText != "" {
		text = errText + "\n\n" + text
	}
	b.retStep(ctx, chatID, editMsgID, dialog.StateRetCond, p, text, row)
}

func (b *Bot) askRetDate(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, errText string) {
	text := "Дата возврата (ДД.ММ.ГГГГ):"
	if errText != "" {
		text = "⚠️ " + errText + "\n\n" + text
	}
	b.retStep(ctx, chatID, editMsgID, dialog.StateRetDate, p, text,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Сегодня ("+api.FormatUser(b.now())+")", "ret:today")),
	)
}

func (b *Bot) askRetNote(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, errText string) {
	text := "Заметка о состоянии сообщением (необязательно)."
	if errText != "" {
		text = errText + "\n\n" + text
	}
	b.retStep(ctx, chatID, editMsgID, dialog.StateRetNote, p, text,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Без заметки", "ret:note:skip")),
	)
}

// ret:open:<issueID> | ret:it:<itemID> | ret:cond:<n> | ret:today | ret:note:skip | ret:close
func (b *Bot) onReturnCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID
	data := strings.TrimPrefix(cb.Data, "ret:")
	p := st.Payload.Clone()
	arg := func(prefix string) int64 {
		n, _ := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		return n
	}

	switch {
	case strings.HasPrefix(data, "open:"):
		b.search.Cancel(chatID)
		b.showReturnTool(ctx, chatID, &mid, arg("open:"), "")

	case strings.HasPrefix(data, "it:") && st.State == dialog.StateRetPick:
		issueID, _ := dialog.GetInt64(p, keyIssueID)
		items, err := b.issues.Items(ctx, issueID)
		if err != nil {
			b.answerCallback(cb, api.UserMessage(err), true)
			return
		}
		id := arg("it:")
		var found *issues.Item
		for _, it := range issues.Pending(items) {
			if it.ID == id {
				found = &it
				break
			}
		}
		if found == nil {
			b.showReturnTool(ctx, chatID, &mid, issueID, "Позиция уже возвращена")
			break
		}
		b.modals.Get(chatID).Open()
		p[keyRetItem] = found.ID
		p[keyRetName] = found.MaterialName
		b.askRetCond(ctx, chatID, &mid, p, "")

	case strings.HasPrefix(data, "cond:") && st.State == dialog.StateRetCond:
		p[keyRetCond] = arg("cond:")
		b.askRetDate(ctx, chatID, &mid, p, "")

	case data == "today" && st.State == dialog.StateRetDate:
		p[keyRetDate] = api.FormatCRUD(b.now())
		b.askRetNote(ctx, chatID, &mid, p, "")

	case data == "note:skip" && st.State == dialog.StateRetNote:
		b.submitReturn(ctx, chatID, &mid, p, "", cb)
		return

	case data == "close":
		b.openList(ctx, chatID, &mid, api.ResIssues, "")

	default:
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	b.answerCallback(cb, "", false)
}

func (b *Bot) onReturnText(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	b.clearPrevStep(chatID, st.Payload)
	p := st.Payload.Clone()
	text = strings.TrimSpace(text)

	switch st.State {
	case dialog.StateRetDate:
		date, err := form.Date(text, b.loc)
		if err != nil {
			b.askRetDate(ctx, chatID, nil, p, "Введите дату в формате ДД.ММ.ГГГГ")
			return
		}
		if date > api.FormatCRUD(b.now()) {
			b.askRetDate(ctx, chatID, nil, p, "Дата возврата не может быть в будущем")
			return
		}
		p[keyRetDate] = date
		b.askRetNote(ctx, chatID, nil, p, "")

	case dialog.StateRetNote:
		b.submitReturn(ctx, chatID, nil, p, text, nil)
	}
}

// submitReturn отправляет возврат позиции. Ошибка сервера оставляет форму
// открытой на шаге заметки.
func (b *Bot) submitReturn(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, note string, cb *tgbotapi.CallbackQuery) {
	answer := func(text string, alert bool) {
		if cb != nil {
			b.answerCallback(cb, text, alert)
		}
	}
	issueID, _ := dialog.GetInt64(p, keyIssueID)
	itemID, _ := dialog.GetInt64(p, keyRetItem)
	cond, _ := dialog.GetInt64(p, keyRetCond)
	dateStr, _ := dialog.GetString(p, keyRetDate)

	m := b.modals.Get(chatID)
	if m.Status() == mutation.Closed {
		m.Open()
	}
	m.OnSuccess = func(ctx context.Context) {
		b.showReturnTool(ctx, chatID, editMsgID, issueID, "✅ Возврат отмечен")
	}

	var req issues.ReturnRequest
	res := m.Submit(ctx,
		func() form.FieldErrors {
			date, err := api.ParseUserDate(dateStr, b.loc)
			if err != nil {
				return form.FieldErrors{"return_date": "Укажите дату возврата"}
			}
			var fe form.FieldErrors
			req, fe = issues.NewReturn(issues.Condition(cond), date, note)
			return fe
		},
		func(ctx context.Context) error { return b.issues.ReturnItem(ctx, itemID, req) },
	)

	switch {
	case errors.Is(res.Err, mutation.ErrBusy):
		answer("Сохраняю, подождите…", false)
	case res.FieldErrors != nil:
		text := fieldErrorsText(res.FieldErrors, retTitles)
		if _, ok := res.FieldErrors["return_date"]; ok {
			b.askRetDate(ctx, chatID, editMsgID, p, "")
			b.reply(chatID, text)
		} else {
			b.askRetCond(ctx, chatID, editMsgID, p, text)
		}
		answer("Проверьте данные", false)
	case res.Err != nil:
		b.log.Warn("return item failed", "item_id", itemID, "err", res.Err)
		b.askRetNote(ctx, chatID, editMsgID, p, errorText(res.Err))
		answer(api.UserMessage(res.Err), true)
	default:
		b.modals.Drop(chatID)
		answer("Сохранено", false)
	}
}
