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
	"github.com/Spok95/sklad-bot/internal/domain/catalog"
	"github.com/Spok95/sklad-bot/internal/domain/issues"
	"github.com/Spok95/sklad-bot/internal/form"
	"github.com/Spok95/sklad-bot/internal/listing"
	"github.com/Spok95/sklad-bot/internal/mutation"
)

const (
	keyDraft = "draft"
	keyCur   = "cur"
)

const issTitle = "🧰 Новая выдача"

var issTitles = map[string]string{
	"foreman_id":           "Прораб",
	"return_type":          "Вид выдачи",
	"expected_return_date": "Срок возврата",
	"items":                "Позиции",
	"comments":             "Комментарий",
}

func loadIssDraft(p dialog.Payload) issues.Draft {
	var d issues.Draft
	_, _ = dialog.Decode(p, keyDraft, &d)
	return d
}

func loadCurItem(p dialog.Payload) (issues.DraftItem, bool) {
	var it issues.DraftItem
	ok, err := dialog.Decode(p, keyCur, &it)
	return it, ok && err == nil
}

func (b *Bot) startIssuance(ctx context.Context, chatID int64, editMsgID *int) {
	b.search.Cancel(chatID)
	b.modals.Get(chatID).Open()
	p := dialog.Payload{keyRes: api.ResIssues}
	_ = dialog.Encode(p, keyDraft, issues.Draft{})
	b.askForeman(ctx, chatID, editMsgID, p)
}

func (b *Bot) askForeman(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	b.showPicker(ctx, chatID, editMsgID, dialog.StateIssForeman, p, api.ResForemen,
		issTitle+"\n\nВыберите прораба:", listing.State{Page: 1})
}

func (b *Bot) askMaterial(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	b.showPicker(ctx, chatID, editMsgID, dialog.StateIssMat, p, api.ResMaterials,
		issTitle+"\n\nВыберите материал (🔧 — инструмент с возвратом):", listing.State{Page: 1})
}

// issStep показывает шаг выдачи и запоминает состояние.
func (b *Bot) issStep(ctx context.Context, chatID int64, editMsgID *int, state dialog.State, p dialog.Payload, text string, rows ...[]tgbotapi.InlineKeyboardButton) {
	rows = append(rows, navRow(true, true))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	p[keyMid] = b.show(chatID, editMsgID, text, &kb)
	b.setState(ctx, chatID, state, p)
}

func (b *Bot) askIssType(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	d := loadIssDraft(p)
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssType, p,
		fmt.Sprintf("%s\nПрораб: %s\n\nВид выдачи:", issTitle, orDash(d.ForemanName)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(issues.WithReturn.String(), fmt.Sprintf("iss:type:%d", issues.WithReturn)),
			tgbotapi.NewInlineKeyboardButtonData(issues.WithoutReturn.String(), fmt.Sprintf("iss:type:%d", issues.WithoutReturn)),
		),
	)
}

func (b *Bot) askIssDate(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, errText string) {
	text := issTitle + "\n\nСрок возврата (ДД.ММ.ГГГГ):"
	if errText != "" {
		text = "⚠️ " + errText + "\n\n" + text
	}
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssDate, p, text)
}

func (b *Bot) showIssItems(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, notice string) {
	d := loadIssDraft(p)
	delete(p, keyCur)

	var sb strings.Builder
	if notice != "" {
		sb.WriteString(notice + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("%s\nПрораб: %s\nВид: %s", issTitle, orDash(d.ForemanName), d.ReturnType))
	if d.ExpectedDate != "" {
		sb.WriteString("\nВернуть до: " + api.HumanDate(d.ExpectedDate))
	}
	sb.WriteString("\n\nПозиции:")
	if len(d.Items) == 0 {
		sb.WriteString(" пока нет")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for i, it := range d.Items {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, it.Label()))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate("🗑 "+it.Label(), 60), fmt.Sprintf("iss:rm:%d", i)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Добавить материал", "iss:add")))
	if len(d.Items) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➡️ Далее", "iss:done")))
	}
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssItems, p, sb.String(), rows...)
}

func (b *Bot) askIssQty(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, errText string) {
	cur, _ := loadCurItem(p)
	text := fmt.Sprintf("%s\nМатериал: %s\n\nКоличество", issTitle, cur.Name)
	if cur.Unit != "" {
		text += " (" + cur.Unit + ")"
	}
	text += ":"
	if errText != "" {
		text = "⚠️ " + errText + "\n\n" + text
	}
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssQty, p, text)
}

func (b *Bot) askIssCond(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	cur, _ := loadCurItem(p)
	d := loadIssDraft(p)
	row := []tgbotapi.InlineKeyboardButton{}
	for _, c := range issues.Conditions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.String(), fmt.Sprintf("iss:cond:%d", c)))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{row}
	if d.ReturnType != issues.WithReturn {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Пропустить", "iss:cond:0")))
	}
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssCond, p,
		fmt.Sprintf("%s\n%s\n\nСостояние инструмента при выдаче:", issTitle, cur.Label()), rows...)
}

func (b *Bot) askIssNote(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	cur, _ := loadCurItem(p)
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssNote, p,
		fmt.Sprintf("%s\n%s\n\nЗаметка о состоянии сообщением (необязательно).", issTitle, cur.Label()),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Пропустить", "iss:note:skip")),
	)
}

func (b *Bot) askIssComment(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssComment, p,
		issTitle+"\n\nКомментарий к выдаче сообщением (необязательно).",
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Пропустить", "iss:comment:skip")),
	)
}

func (b *Bot) showIssConfirm(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, errText string) {
	d := loadIssDraft(p)
	var sb strings.Builder
	if errText != "" {
		sb.WriteString(errText + "\n\n")
	}
	sb.WriteString(issTitle + "\n\nПроверьте данные:")
	sb.WriteString("\n— Прораб: " + orDash(d.ForemanName))
	sb.WriteString("\n— Вид: " + d.ReturnType.String())
	if d.ExpectedDate != "" {
		sb.WriteString("\n— Вернуть до: " + api.HumanDate(d.ExpectedDate))
	}
	sb.WriteString("\n— Комментарий: " + orDash(d.Comments))
	sb.WriteString("\n— Позиции:")
	for i, it := range d.Items {
		sb.WriteString(fmt.Sprintf("\n   %d. %s", i+1, it.Label()))
	}
	b.issStep(ctx, chatID, editMsgID, dialog.StateIssConfirm, p, sb.String(),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Оформить выдачу", "iss:submit")),
	)
}

// addCurItem переносит текущую позицию в черновик.
func (b *Bot) addCurItem(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	cur, ok := loadCurItem(p)
	d := loadIssDraft(p)
	if ok {
		d.Items = append(d.Items, cur)
		_ = dialog.Encode(p, keyDraft, d)
	}
	b.showIssItems(ctx, chatID, editMsgID, p, "")
}

func (b *Bot) issuancePicked(ctx context.Context, chatID int64, editMsgID *int, state dialog.State, p dialog.Payload, o option) {
	switch state {
	case dialog.StateIssForeman:
		d := loadIssDraft(p)
		d.ForemanID, d.ForemanName = o.ID, o.Label
		_ = dialog.Encode(p, keyDraft, d)
		b.askIssType(ctx, chatID, editMsgID, p)

	case dialog.StateIssMat:
		m, ok := o.Value.(catalog.Material)
		if !ok {
			b.log.Error("material picker returned unexpected value", "type", fmt.Sprintf("%T", o.Value))
			b.showIssItems(ctx, chatID, editMsgID, p, "")
			return
		}
		_ = dialog.Encode(p, keyCur, issues.NewDraftItem(m))
		b.askIssQty(ctx, chatID, editMsgID, p, "")
	}
}

func (b *Bot) onIssuanceText(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	b.clearPrevStep(chatID, st.Payload)
	p := st.Payload.Clone()
	text = strings.TrimSpace(text)

	switch st.State {
	case dialog.StateIssDate:
		date, err := form.Date(text, b.loc)
		if err != nil {
			b.askIssDate(ctx, chatID, nil, p, "Введите дату в формате ДД.ММ.ГГГГ")
			return
		}
		if date < api.FormatCRUD(b.now()) {
			b.askIssDate(ctx, chatID, nil, p, "Срок возврата не может быть в прошлом")
			return
		}
		d := loadIssDraft(p)
		d.ExpectedDate = date
		_ = dialog.Encode(p, keyDraft, d)
		b.showIssItems(ctx, chatID, nil, p, "")

	case dialog.StateIssQty:
		qty, err := form.Decimal(text)
		if err != nil {
			b.askIssQty(ctx, chatID, nil, p, "Введите количество числом больше нуля")
			return
		}
		cur, ok := loadCurItem(p)
		if !ok {
			b.showIssItems(ctx, chatID, nil, p, "")
			return
		}
		cur.Quantity = qty.String()
		_ = dialog.Encode(p, keyCur, cur)
		if cur.Returnable() {
			b.askIssCond(ctx, chatID, nil, p)
			return
		}
		b.addCurItem(ctx, chatID, nil, p)

	case dialog.StateIssNote:
		cur, ok := loadCurItem(p)
		if ok {
			cur.ConditionNote = text
			_ = dialog.Encode(p, keyCur, cur)
		}
		b.addCurItem(ctx, chatID, nil, p)

	case dialog.StateIssComment:
		d := loadIssDraft(p)
		d.Comments = text
		_ = dialog.Encode(p, keyDraft, d)
		b.showIssConfirm(ctx, chatID, nil, p, "")
	}
}

// iss:type:<n> | iss:add | iss:rm:<i> | iss:done | iss:cond:<n> |
// iss:note:skip | iss:comment:skip | iss:submit
func (b *Bot) onIssuanceCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID
	if !strings.HasPrefix(string(st.State), "iss:") {
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	p := st.Payload.Clone()
	data := strings.TrimPrefix(cb.Data, "iss:")
	arg := func() int {
		i := strings.LastIndex(data, ":")
		n, _ := strconv.Atoi(data[i+1:])
		return n
	}

	switch {
	case strings.HasPrefix(data, "type:") && st.State == dialog.StateIssType:
		d := loadIssDraft(p)
		d.ReturnType = issues.ReturnType(arg())
		if d.ReturnType != issues.WithReturn {
			d.ExpectedDate = ""
		}
		_ = dialog.Encode(p, keyDraft, d)
		if d.ReturnType == issues.WithReturn {
			b.askIssDate(ctx, chatID, &mid, p, "")
		} else {
			b.showIssItems(ctx, chatID, &mid, p, "")
		}

	case data == "add" && st.State == dialog.StateIssItems:
		b.askMaterial(ctx, chatID, &mid, p)

	case strings.HasPrefix(data, "rm:") && st.State == dialog.StateIssItems:
		d := loadIssDraft(p)
		if i := arg(); i >= 0 && i < len(d.Items) {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			_ = dialog.Encode(p, keyDraft, d)
		}
		b.showIssItems(ctx, chatID, &mid, p, "")

	case data == "done" && st.State == dialog.StateIssItems:
		b.askIssComment(ctx, chatID, &mid, p)

	case strings.HasPrefix(data, "cond:") && st.State == dialog.StateIssCond:
		cur, ok := loadCurItem(p)
		if !ok {
			b.showIssItems(ctx, chatID, &mid, p, "")
			break
		}
		c := arg()
		if c == 0 && loadIssDraft(p).ReturnType == issues.WithReturn {
			b.answerCallback(cb, "Укажите состояние", true)
			return
		}
		cur.Condition = c
		_ = dialog.Encode(p, keyCur, cur)
		if c == 0 {
			b.addCurItem(ctx, chatID, &mid, p)
		} else {
			b.askIssNote(ctx, chatID, &mid, p)
		}

	case data == "note:skip" && st.State == dialog.StateIssNote:
		b.addCurItem(ctx, chatID, &mid, p)

	case data == "comment:skip" && st.State == dialog.StateIssComment:
		d := loadIssDraft(p)
		d.Comments = ""
		_ = dialog.Encode(p, keyDraft, d)
		b.showIssConfirm(ctx, chatID, &mid, p, "")

	case data == "submit" && st.State == dialog.StateIssConfirm:
		b.submitIssuance(ctx, cb, p)
		return

	default:
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	b.answerCallback(cb, "", false)
}

func (b *Bot) submitIssuance(ctx context.Context, cb *tgbotapi.CallbackQuery, p dialog.Payload) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID
	d := loadIssDraft(p)

	m := b.modals.Get(chatID)
	if m.Status() == mutation.Closed {
		m.Open()
	}
	m.OnSuccess = func(ctx context.Context) {
		b.openList(ctx, chatID, &mid, api.ResIssues, "✅ Выдача оформлена")
	}
	var req issues.CreateRequest
	res := m.Submit(ctx,
		func() form.FieldErrors {
			var fe form.FieldErrors
			req, fe = issues.BuildCreate(d)
			return fe
		},
		func(ctx context.Context) error { return b.issues.Create(ctx, req) },
	)

	switch {
	case errors.Is(res.Err, mutation.ErrBusy):
		b.answerCallback(cb, "Сохраняю, подождите…", false)
	case res.FieldErrors != nil:
		b.showIssConfirm(ctx, chatID, &mid, p, fieldErrorsText(res.FieldErrors, issTitles))
		b.answerCallback(cb, "Проверьте данные", false)
	case res.Err != nil:
		b.log.Warn("issuance submit failed", "err", res.Err)
		b.showIssConfirm(ctx, chatID, &mid, p, errorText(res.Err))
		b.answerCallback(cb, api.UserMessage(res.Err), true)
	default:
		b.modals.Drop(chatID)
		b.answerCallback(cb, "Сохранено", false)
	}
}

// issuanceBack — на шаг назад; с первого шага к списку выдач.
func (b *Bot) issuanceBack(ctx context.Context, chatID int64, editMsgID *int, st *dialog.Item) {
	p := st.Payload.Clone()
	clearPick(p)
	d := loadIssDraft(p)

	switch st.State {
	case dialog.StateIssForeman:
		b.modals.Get(chatID).Close()
		b.modals.Drop(chatID)
		b.openList(ctx, chatID, editMsgID, api.ResIssues, "")
	case dialog.StateIssType:
		b.askForeman(ctx, chatID, editMsgID, p)
	case dialog.StateIssDate:
		b.askIssType(ctx, chatID, editMsgID, p)
	case dialog.StateIssItems:
		if d.ReturnType == issues.WithReturn {
			b.askIssDate(ctx, chatID, editMsgID, p, "")
		} else {
			b.askIssType(ctx, chatID, editMsgID, p)
		}
	case dialog.StateIssMat:
		b.showIssItems(ctx, chatID, editMsgID, p, "")
	case dialog.StateIssQty:
		delete(p, keyCur)
		b.askMaterial(ctx, chatID, editMsgID, p)
	case dialog.StateIssCond:
		b.askIssQty(ctx, chatID, editMsgID, p, "")
	case dialog.StateIssNote:
		b.askIssCond(ctx, chatID, editMsgID, p)
	case dialog.StateIssComment:
		b.showIssItems(ctx, chatID, editMsgID, p, "")
	case dialog.StateIssConfirm:
		b.askIssComment(ctx, chatID, editMsgID, p)
	}
}
