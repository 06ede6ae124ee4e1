package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/api"
	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/export"
	"github.com/Spok95/sklad-bot/internal/listing"
)

const (
	keyExpKind = "exp_kind"
	keyFilter  = "filter"
)

// exportRegistry — открытая выгрузка чата.
type exportRegistry struct {
	mu   sync.Mutex
	byID map[int64]*export.Negotiator
}

func newExportRegistry() *exportRegistry {
	return &exportRegistry{byID: make(map[int64]*export.Negotiator)}
}

func (r *exportRegistry) open(chatID int64, kind export.Kind, src export.Prober) *export.Negotiator {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := export.New(kind, src)
	r.byID[chatID] = n
	return n
}

// get возвращает выгрузку чата; fresh — создана заново (например, после рестарта).
func (r *exportRegistry) get(chatID int64, kind export.Kind, src export.Prober) (n *export.Negotiator, fresh bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.byID[chatID]; ok && n.Kind().Resource == kind.Resource {
		return n, false
	}
	n = export.New(kind, src)
	r.byID[chatID] = n
	return n, true
}

func (r *exportRegistry) drop(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, chatID)
}

func (b *Bot) startExport(ctx context.Context, chatID int64, editMsgID *int, res string, kind export.Kind) {
	b.search.Cancel(chatID)
	b.exports.open(chatID, kind, b.prober)
	p := dialog.Payload{keyRes: res, keyExpKind: kind.Resource}
	b.showExport(ctx, chatID, editMsgID, p)
}

// negotiator выгрузки из payload; после рестарта фильтр восстанавливается
// и count запрашивается заново.
func (b *Bot) negotiator(ctx context.Context, chatID int64, p dialog.Payload) (*export.Negotiator, error) {
	res, _ := dialog.GetString(p, keyExpKind)
	kind, ok := export.Lookup(res)
	if !ok {
		return nil, fmt.Errorf("unknown export %q", res)
	}
	n, fresh := b.exports.get(chatID, kind, b.prober)
	if !fresh {
		return n, nil
	}
	var f export.Filter
	if ok, _ := dialog.Decode(p, keyFilter, &f); ok {
		if _, err := n.Restore(ctx, f); err != nil && !errors.Is(err, export.ErrRange) {
			return n, err
		}
	}
	return n, nil
}

func (b *Bot) showExport(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload) {
	b.renderExport(ctx, chatID, editMsgID, p, "")
}

func (b *Bot) renderExport(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, notice string) {
	n, err := b.negotiator(ctx, chatID, p)
	if n == nil {
		b.log.Error("open export", "chat_id", chatID, "err", err)
		b.resetState(ctx, chatID)
		return
	}
	if err != nil && notice == "" {
		notice = errorText(err)
	}
	k := n.Kind()
	f := n.Filter()

	var sb strings.Builder
	if notice != "" {
		sb.WriteString(notice + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("📊 Выгрузка в Excel: %s\n\nС: %s\nПо: %s", k.Title, userDate(f.Start), userDate(f.End)))
	if k.Dimension != nil {
		sb.WriteString(fmt.Sprintf("\n%s: %s", k.Dimension.Title, orDash(f.DimName)))
	}
	switch {
	case !f.Complete():
		sb.WriteString("\n\nУкажите обе даты.")
	case f.Start.After(f.End):
		sb.WriteString("\n\nДата начала позже даты окончания.")
	default:
		sb.WriteString(fmt.Sprintf("\n\nНайдено строк: %d", n.Count()))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Дата начала", "exp:start"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Дата окончания", "exp:end"),
		),
	}
	if k.Dimension != nil {
		row := tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔎 "+k.Dimension.Title, "exp:dim"))
		if f.DimID > 0 {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Все", "exp:dimclr"))
		}
		rows = append(rows, row)
	}
	if n.CanDownload() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⬇️ Скачать (%d)", n.Count()), "exp:dl"),
		))
	}
	rows = append(rows, navRow(true, true))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)

	p[keyMid] = b.show(chatID, editMsgID, sb.String(), &kb)
	_ = dialog.Encode(p, keyFilter, f)
	b.setState(ctx, chatID, dialog.StateExpMenu, p)
}

func userDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return api.FormatUser(t)
}

// exp:start | exp:end | exp:dim | exp:dimclr | exp:dl
func (b *Bot) onExportCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID
	if st.State != dialog.StateExpMenu {
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	p := st.Payload.Clone()
	n, err := b.negotiator(ctx, chatID, p)
	if n == nil {
		b.log.Warn("export callback without export", "chat_id", chatID, "err", err)
		b.answerCallback(cb, "Неактуально", false)
		return
	}

	switch cb.Data {
	case "exp:start":
		b.askExportDate(ctx, chatID, &mid, dialog.StateExpStart, p, "")
	case "exp:end":
		b.askExportDate(ctx, chatID, &mid, dialog.StateExpEnd, p, "")
	case "exp:dim":
		d := n.Kind().Dimension
		if d == nil {
			b.answerCallback(cb, "Неактуально", false)
			return
		}
		b.showPicker(ctx, chatID, &mid, dialog.StateExpDim, p, d.Resource, "📊 "+d.Title+" для выгрузки:", listing.State{Page: 1})
	case "exp:dimclr":
		_, err := n.ClearDimension(ctx)
		b.afterFilterChange(ctx, chatID, &mid, p, err)
	case "exp:dl":
		b.downloadExport(ctx, cb, n)
		return
	default:
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	b.answerCallback(cb, "", false)
}

func (b *Bot) askExportDate(ctx context.Context, chatID int64, editMsgID *int, state dialog.State, p dialog.Payload, errText string) {
	text := "Дата начала периода (ДД.ММ.ГГГГ):"
	if state == dialog.StateExpEnd {
		text = "Дата окончания периода (ДД.ММ.ГГГГ):"
	}
	if errText != "" {
		text = "⚠️ " + errText + "\n\n" + text
	}
	kb := navKeyboard(true, true)
	p[keyMid] = b.show(chatID, editMsgID, text, &kb)
	b.setState(ctx, chatID, state, p)
}

func (b *Bot) onExportText(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	b.clearPrevStep(chatID, st.Payload)
	p := st.Payload.Clone()
	t, err := api.ParseUserDate(text, b.loc)
	if err != nil {
		b.askExportDate(ctx, chatID, nil, st.State, p, "Введите дату в формате ДД.ММ.ГГГГ")
		return
	}
	n, err := b.negotiator(ctx, chatID, p)
	if n == nil {
		b.log.Warn("export text without export", "chat_id", chatID, "err", err)
		b.resetState(ctx, chatID)
		return
	}
	if st.State == dialog.StateExpStart {
		_, err = n.SetStart(ctx, t)
	} else {
		_, err = n.SetEnd(ctx, t)
	}
	b.afterFilterChange(ctx, chatID, nil, p, err)
}

func (b *Bot) exportPicked(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, o option) {
	n, err := b.negotiator(ctx, chatID, p)
	if n == nil {
		b.log.Warn("export pick without export", "chat_id", chatID, "err", err)
		b.resetState(ctx, chatID)
		return
	}
	_, err = n.SetDimension(ctx, o.ID, o.Label)
	b.afterFilterChange(ctx, chatID, editMsgID, p, err)
}

// afterFilterChange: устаревший ответ count не показываем, его перекроет
// более новый.
func (b *Bot) afterFilterChange(ctx context.Context, chatID int64, editMsgID *int, p dialog.Payload, err error) {
	switch {
	case errors.Is(err, export.ErrStale):
		return
	case errors.Is(err, export.ErrRange):
		b.renderExport(ctx, chatID, editMsgID, p, "⚠️ Дата начала позже даты окончания")
	case err != nil:
		b.log.Warn("export count failed", "chat_id", chatID, "err", err)
		b.renderExport(ctx, chatID, editMsgID, p, errorText(err))
	default:
		b.renderExport(ctx, chatID, editMsgID, p, "")
	}
}

func (b *Bot) downloadExport(ctx context.Context, cb *tgbotapi.CallbackQuery, n *export.Negotiator) {
	chatID := cb.Message.Chat.ID
	if !n.CanDownload() {
		b.answerCallback(cb, "Сначала укажите период с данными", true)
		return
	}
	b.answerCallback(cb, "Готовлю файл…", false)
	b.send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatUploadDocument))

	file, err := n.Download(ctx)
	if err != nil {
		b.log.Warn("export download failed", "chat_id", chatID, "kind", n.Kind().Resource, "err", err)
		b.reply(chatID, errorText(err))
		return
	}
	f := n.Filter()
	caption := fmt.Sprintf("📊 %s: %s – %s", n.Kind().Title, api.FormatUser(f.Start), api.FormatUser(f.End))
	if sum, err := export.Inspect(file.Data); err == nil {
		caption += "\n" + sum.String()
	} else {
		b.log.Warn("inspect workbook", "err", err)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: file.Name, Bytes: file.Data})
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send export file", "chat_id", chatID, "err", err)
		b.reply(chatID, "❌ Не удалось отправить файл")
	}
}
