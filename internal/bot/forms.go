package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/form"
	"github.com/Spok95/sklad-bot/internal/listing"
	"github.com/Spok95/sklad-bot/internal/mutation"
)

const (
	keyForm   = "form"
	keyStep   = "step"
	keyValues = "values"
	keyLabels = "labels"
	keyErr    = "err"
)

type fieldKind int

const (
	fieldText   fieldKind = iota // ввод сообщением
	fieldChoice                  // кнопки
	fieldPick                    // выбор из справочника
)

type choice struct {
	Label string
	Value string
}

type field struct {
	Key      string // json-имя поля запроса
	Title    string
	Prompt   string
	Kind     fieldKind
	Choices  []choice
	Pick     string // ресурс справочника
	Optional bool
	// Parse нормализует ввод; ошибка — текст для пользователя.
	Parse func(s string, now time.Time) (string, error)
	// Shortcut — готовое значение кнопкой (например, «Сегодня»).
	Shortcut func(now time.Time) choice
}

// values поле → значение; labels — то, что показываем пользователю.
type values map[string]string

type formSpec struct {
	ID    string
	Title string
	List  string // список, который перечитать после сохранения; "" — экран курса
	// Intro — строка над первым шагом (текущий курс).
	Intro  func(ctx context.Context) string
	Fields []field
	// Prepare проверяет ответы и готовит запрос.
	Prepare func(v values, now time.Time) (func(ctx context.Context) error, form.FieldErrors)
}

func (f *formSpec) titles() map[string]string {
	out := make(map[string]string, len(f.Fields))
	for _, fl := range f.Fields {
		out[fl.Key] = fl.Title
	}
	return out
}

func (f *formSpec) stepOf(key string) int {
	for i, fl := range f.Fields {
		if fl.Key == key {
			return i
		}
	}
	return -1
}

type formDraft struct {
	ID     string
	Step   int
	Values values
	Labels values
	Err    string
}

func loadFormDraft(p dialog.Payload) formDraft {
	d := formDraft{Values: values{}, Labels: values{}}
	d.ID, _ = dialog.GetString(p, keyForm)
	if n, ok := dialog.GetInt64(p, keyStep); ok {
		d.Step = int(n)
	}
	_, _ = dialog.Decode(p, keyValues, &d.Values)
	_, _ = dialog.Decode(p, keyLabels, &d.Labels)
	d.Err, _ = dialog.GetString(p, keyErr)
	return d
}

func (d formDraft) payload(base dialog.Payload) dialog.Payload {
	p := base.Clone()
	p[keyForm] = d.ID
	p[keyStep] = d.Step
	_ = dialog.Encode(p, keyValues, d.Values)
	_ = dialog.Encode(p, keyLabels, d.Labels)
	if d.Err != "" {
		p[keyErr] = d.Err
	} else {
		delete(p, keyErr)
	}
	return p
}

func (b *Bot) startCreate(ctx context.Context, chatID int64, editMsgID *int, s screen) {
	switch s.createAction() {
	case "":
		return
	case flowIssuance:
		b.startIssuance(ctx, chatID, editMsgID)
	default:
		b.startForm(ctx, chatID, editMsgID, s.createAction())
	}
}

func (b *Bot) startForm(ctx context.Context, chatID int64, editMsgID *int, id string) {
	spec, ok := b.forms[id]
	if !ok {
		return
	}
	b.search.Cancel(chatID)
	b.modals.Get(chatID).Open()

	p := dialog.Payload{keyRes: spec.List}
	if spec.Intro != nil {
		p["intro"] = spec.Intro(ctx)
	}
	d := formDraft{ID: id, Values: values{}, Labels: values{}}
	b.showFormStep(ctx, chatID, editMsgID, spec, d, d.payload(p))
}

func (b *Bot) showFormStep(ctx context.Context, chatID int64, editMsgID *int, spec *formSpec, d formDraft, p dialog.Payload) {
	if d.Step >= len(spec.Fields) {
		b.showFormConfirm(ctx, chatID, editMsgID, spec, d, p)
		return
	}
	fl := spec.Fields[d.Step]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s — шаг %d из %d", spec.Title, d.Step+1, len(spec.Fields)))
	if intro, _ := dialog.GetString(p, "intro"); intro != "" && d.Step == 0 {
		sb.WriteString("\n" + intro)
	}
	if d.Err != "" {
		sb.WriteString("\n\n⚠️ " + d.Err)
	}
	sb.WriteString("\n\n" + fl.Prompt)
	if fl.Optional {
		sb.WriteString("\n(необязательно)")
	}

	if fl.Kind == fieldPick {
		b.showPicker(ctx, chatID, editMsgID, dialog.StateForm, p, fl.Pick, sb.String(), listing.State{Page: 1})
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, c := range fl.Choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Label, "fm:ch:"+c.Value),
		))
	}
	if fl.Shortcut != nil {
		c := fl.Shortcut(b.now())
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Label, "fm:ch:"+c.Value),
		))
	}
	if fl.Optional {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Пропустить", "fm:skip"),
		))
	}
	rows = append(rows, navRow(true, true))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	p[keyMid] = b.show(chatID, editMsgID, sb.String(), &kb)
	b.setState(ctx, chatID, dialog.StateForm, p)
}

func (b *Bot) showFormConfirm(ctx context.Context, chatID int64, editMsgID *int, spec *formSpec, d formDraft, p dialog.Payload) {
	var sb strings.Builder
	if d.Err != "" {
		sb.WriteString(d.Err + "\n\n")
	}
	sb.WriteString(spec.Title + "\n\nПроверьте данные:")
	for _, fl := range spec.Fields {
		sb.WriteString(fmt.Sprintf("\n— %s: %s", fl.Title, orDash(d.Labels[fl.Key])))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Сохранить", "fm:submit")),
		navRow(true, true),
	)
	p[keyMid] = b.show(chatID, editMsgID, sb.String(), &kb)
	b.setState(ctx, chatID, dialog.StateForm, p)
}

// setFormValue записывает ответ текущего шага и переходит к следующему.
func (b *Bot) setFormValue(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, value, label string) {
	d := loadFormDraft(p)
	spec, ok := b.forms[d.ID]
	if !ok || d.Step >= len(spec.Fields) {
		return
	}
	key := spec.Fields[d.Step].Key
	d.Values[key] = value
	d.Labels[key] = label
	d.Err = ""
	d.Step++
	b.showFormStep(ctx, chatID, editMsgID, spec, d, d.payload(p))
}

func (b *Bot) onFormText(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	d := loadFormDraft(st.Payload)
	spec, ok := b.forms[d.ID]
	if !ok {
		b.resetState(ctx, chatID)
		return
	}
	if d.Step >= len(spec.Fields) {
		b.reply(chatID, "Нажмите «✅ Сохранить» или вернитесь назад.")
		return
	}
	fl := spec.Fields[d.Step]
	if fl.Kind != fieldText {
		b.reply(chatID, "Выберите вариант кнопкой.")
		return
	}
	b.clearPrevStep(chatID, st.Payload)
	value := strings.TrimSpace(text)
	if fl.Parse != nil {
		v, err := fl.Parse(value, b.now())
		if err != nil {
			d.Err = err.Error()
			b.showFormStep(ctx, chatID, nil, spec, d, d.payload(st.Payload))
			return
		}
		value = v
	}
	if value == "" && !fl.Optional {
		d.Err = "Поле обязательно"
		b.showFormStep(ctx, chatID, nil, spec, d, d.payload(st.Payload))
		return
	}
	label := value
	if fl.Optional && form.Optional(value) == nil {
		value, label = "", ""
	}
	b.setFormValue(ctx, chatID, nil, st.Payload, value, label)
}

func (b *Bot) formPicked(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, o option) {
	b.setFormValue(ctx, chatID, editMsgID, p, fmt.Sprint(o.ID), o.Label)
}

func (b *Bot) formBack(ctx context.Context, chatID int64, editMsgID *int, st *dialog.Item) {
	d := loadFormDraft(st.Payload)
	spec, ok := b.forms[d.ID]
	if !ok || d.Step == 0 {
		b.modals.Get(chatID).Close()
		b.leaveForm(ctx, chatID, editMsgID, spec, "")
		return
	}
	p := st.Payload.Clone()
	clearPick(p)
	d.Step--
	d.Err = ""
	b.showFormStep(ctx, chatID, editMsgID, spec, d, d.payload(p))
}

// leaveForm возвращает к экрану, с которого открыта форма.
func (b *Bot) leaveForm(ctx context.Context, chatID int64, editMsgID *int, spec *formSpec, notice string) {
	if spec != nil && spec.List != "" {
		b.openList(ctx, chatID, editMsgID, spec.List, notice)
		return
	}
	if spec != nil && spec.ID == formRate {
		b.showRate(ctx, chatID, editMsgID)
		if notice != "" {
			b.reply(chatID, notice)
		}
		return
	}
	b.resetState(ctx, chatID)
}

// fm:ch:<value> | fm:skip | fm:submit
func (b *Bot) onFormCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID
	if st.State != dialog.StateForm {
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	d := loadFormDraft(st.Payload)
	spec, ok := b.forms[d.ID]
	if !ok {
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	data := strings.TrimPrefix(cb.Data, "fm:")

	switch {
	case strings.HasPrefix(data, "ch:"):
		if d.Step >= len(spec.Fields) {
			b.answerCallback(cb, "Неактуально", false)
			return
		}
		v := strings.TrimPrefix(data, "ch:")
		fl := spec.Fields[d.Step]
		label := v
		for _, c := range fl.Choices {
			if c.Value == v {
				label = c.Label
			}
		}
		if fl.Shortcut != nil {
			if c := fl.Shortcut(b.now()); c.Value == v {
				label = c.Label
				if fl.Parse != nil {
					if pv, err := fl.Parse(v, b.now()); err == nil {
						v = pv
					}
				}
			}
		}
		b.setFormValue(ctx, chatID, &mid, st.Payload, v, label)
		b.answerCallback(cb, "", false)

	case data == "skip":
		if d.Step < len(spec.Fields) && spec.Fields[d.Step].Optional {
			b.setFormValue(ctx, chatID, &mid, st.Payload, "", "")
		}
		b.answerCallback(cb, "", false)

	case data == "submit":
		b.submitForm(ctx, cb, spec, d, st.Payload)

	default:
		b.answerCallback(cb, "Неактуально", false)
	}
}

// submitForm: ошибки полей возвращают к первому неверному шагу, ошибка
// сервера оставляет форму открытой для повторной отправки.
func (b *Bot) submitForm(ctx context.Context, cb *tgbotapi.CallbackQuery, spec *formSpec, d formDraft, p dialog.Payload) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID

	m := b.modals.Get(chatID)
	if m.Status() == mutation.Closed {
		m.Open()
	}
	m.OnSuccess = func(ctx context.Context) {
		b.leaveForm(ctx, chatID, &mid, spec, "✅ Сохранено")
	}
	now := b.now()
	var do func(ctx context.Context) error
	res := m.Submit(ctx,
		func() form.FieldErrors {
			var fe form.FieldErrors
			do, fe = spec.Prepare(d.Values, now)
			return fe
		},
		func(ctx context.Context) error { return do(ctx) },
	)

	switch {
	case errors.Is(res.Err, mutation.ErrBusy):
		b.answerCallback(cb, "Сохраняю, подождите…", false)
	case res.FieldErrors != nil:
		first := len(spec.Fields)
		for k := range res.FieldErrors {
			if i := spec.stepOf(k); i >= 0 && i < first {
				first = i
			}
		}
		if first == len(spec.Fields) {
			d.Err = fieldErrorsText(res.FieldErrors, spec.titles())
		} else {
			d.Step = first
			d.Err = res.FieldErrors[spec.Fields[first].Key]
		}
		b.showFormStep(ctx, chatID, &mid, spec, d, d.payload(p))
		b.answerCallback(cb, "Проверьте данные", false)
	case res.Err != nil:
		b.log.Warn("form submit failed", "form", spec.ID, "err", res.Err)
		d.Err = errorText(res.Err)
		b.showFormConfirm(ctx, chatID, &mid, spec, d, d.payload(p))
		b.answerCallback(cb, api.UserMessage(res.Err), true)
	default:
		b.modals.Drop(chatID)
		b.answerCallback(cb, "Сохранено", false)
	}
}
