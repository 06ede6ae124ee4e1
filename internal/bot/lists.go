package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/sklad-bot/internal/dialog"
	"github.com/Spok95/sklad-bot/internal/export"
	"github.com/Spok95/sklad-bot/internal/listing"
	"github.com/Spok95/sklad-bot/internal/mutation"
	"github.com/Spok95/sklad-bot/internal/search"
)

// Ключи payload диалога.
const (
	keyRes       = "res"
	keyList      = "list"
	keyMid       = "mid"
	keyDelID     = "del_id"
	keyPick      = "pick"
	keyPickState = "pick_state"
	keyPickTitle = "pick_title"
)

const emptyText = "Нет данных"

// screen — экран списка одного ресурса.
type screen interface {
	Tag() string
	Title() string
	refetch(ctx context.Context, chatID int64, saved listing.State) (listing.State, error)
	setPage(ctx context.Context, chatID int64, saved listing.State, n int) (listing.State, error)
	setQuery(ctx context.Context, chatID int64, saved listing.State, q string) (listing.State, error)
	render(chatID int64) (string, tgbotapi.InlineKeyboardMarkup)
	card(ctx context.Context, chatID int64, saved listing.State, id int64) (string, tgbotapi.InlineKeyboardMarkup, bool)
	remove(ctx context.Context, id int64, reason *string) error
	askReason() bool
	exportKind() (export.Kind, bool)
	createAction() string
}

type resource[T any] struct {
	tag    string
	title  string
	src    listing.Source[T]
	limit  int
	id     func(T) int64
	row    func(T) string
	detail func(T) string
	// extra — дополнительные кнопки карточки
	extra  func(T) [][]tgbotapi.InlineKeyboardButton
	del    func(ctx context.Context, id int64, reason *string) error
	reason bool
	create string // id формы или сценария
	export *export.Kind

	mu    sync.Mutex
	ctrls map[int64]*listing.Controller[T]
}

func (r *resource[T]) Tag() string   { return r.tag }
func (r *resource[T]) Title() string { return r.title }

func (r *resource[T]) askReason() bool      { return r.reason }
func (r *resource[T]) createAction() string { return r.create }

func (r *resource[T]) exportKind() (export.Kind, bool) {
	if r.export == nil {
		return export.Kind{}, false
	}
	return *r.export, true
}

// ctrl контроллер чата; после перезапуска восстанавливается из payload.
func (r *resource[T]) ctrl(chatID int64, saved listing.State) *listing.Controller[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctrls == nil {
		r.ctrls = make(map[int64]*listing.Controller[T])
	}
	c, ok := r.ctrls[chatID]
	if !ok {
		c = listing.New(r.src, r.limit)
		c.Restore(saved)
		r.ctrls[chatID] = c
	}
	return c
}

func (r *resource[T]) refetch(ctx context.Context, chatID int64, saved listing.State) (listing.State, error) {
	c := r.ctrl(chatID, saved)
	err := c.Refetch(ctx)
	return c.State(), err
}

func (r *resource[T]) setPage(ctx context.Context, chatID int64, saved listing.State, n int) (listing.State, error) {
	c := r.ctrl(chatID, saved)
	err := c.SetPage(ctx, n)
	return c.State(), err
}

func (r *resource[T]) setQuery(ctx context.Context, chatID int64, saved listing.State, q string) (listing.State, error) {
	c := r.ctrl(chatID, saved)
	err := c.SetQuery(ctx, q)
	return c.State(), err
}

func (r *resource[T]) remove(ctx context.Context, id int64, reason *string) error {
	if r.del == nil {
		return errors.New("delete is not supported")
	}
	return r.del(ctx, id, reason)
}

func (r *resource[T]) render(chatID int64) (string, tgbotapi.InlineKeyboardMarkup) {
	c := r.ctrl(chatID, listing.State{})
	st := c.State()
	items := c.Items()

	var sb strings.Builder
	sb.WriteString("📋 " + r.title)
	if st.Query != "" {
		sb.WriteString(fmt.Sprintf("\n🔎 Поиск: «%s»", st.Query))
		if !c.Searching() {
			sb.WriteString(fmt.Sprintf(" (меньше %d символов, показан весь список)", listing.MinQueryLen))
		}
	}
	if st.TotalPages > 0 {
		sb.WriteString(fmt.Sprintf("\nСтраница %d из %d", st.Page, st.TotalPages))
	}
	if len(items) == 0 {
		sb.WriteString("\n\n" + emptyText)
	} else {
		sb.WriteString("\n\nВыберите запись или отправьте текст для поиска.")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, it := range items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(truncate(r.row(it), 60), fmt.Sprintf("ls:%s:it:%d", r.tag, r.id(it))),
		))
	}
	if pr := pagerRow(fmt.Sprintf("ls:%s:pg:", r.tag), st); pr != nil {
		rows = append(rows, pr)
	}
	actions := []tgbotapi.InlineKeyboardButton{}
	if r.create != "" {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", "ls:"+r.tag+":new"))
	}
	if r.export != nil {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("📥 Excel", "ls:"+r.tag+":exp"))
	}
	if st.Query != "" {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("✖️ Сбросить поиск", "ls:"+r.tag+":rs"))
	}
	if len(actions) > 0 {
		rows = append(rows, actions)
	}
	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (r *resource[T]) find(chatID int64, saved listing.State, id int64) (T, bool) {
	for _, it := range r.ctrl(chatID, saved).Items() {
		if r.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (r *resource[T]) card(ctx context.Context, chatID int64, saved listing.State, id int64) (string, tgbotapi.InlineKeyboardMarkup, bool) {
	it, ok := r.find(chatID, saved, id)
	if !ok {
		// после перезапуска страница ещё не загружена
		if _, err := r.refetch(ctx, chatID, saved); err == nil {
			it, ok = r.find(chatID, saved, id)
		}
	}
	if !ok {
		return "", tgbotapi.InlineKeyboardMarkup{}, false
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	if r.extra != nil {
		rows = append(rows, r.extra(it)...)
	}
	if r.del != nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("ls:%s:del:%d", r.tag, id)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ К списку", "ls:"+r.tag+":back"),
	))
	return r.detail(it), tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func savedList(p dialog.Payload) listing.State {
	var st listing.State
	_, _ = dialog.Decode(p, keyList, &st)
	return st
}

func (b *Bot) listPayload(res string, st listing.State, mid int) dialog.Payload {
	p := dialog.Payload{keyRes: res, keyMid: mid}
	_ = dialog.Encode(p, keyList, st)
	return p
}

// openList показывает список ресурса (перечитывает текущую страницу).
// notice — строка над списком, например «✅ Сохранено».
func (b *Bot) openList(ctx context.Context, chatID int64, editMsgID *int, res, notice string) {
	s, ok := b.screens[res]
	if !ok {
		return
	}
	saved := listing.State{Page: 1}
	if st := b.state(ctx, chatID); st.State == dialog.StateList {
		if r, _ := dialog.GetString(st.Payload, keyRes); r == res {
			saved = savedList(st.Payload)
		}
	}
	st, err := s.refetch(ctx, chatID, saved)
	if errors.Is(err, listing.ErrStale) {
		return
	}
	b.renderList(ctx, chatID, editMsgID, s, st, notice, err)
}

func (b *Bot) renderList(ctx context.Context, chatID int64, editMsgID *int, s screen, st listing.State, notice string, err error) {
	text, kb := s.render(chatID)
	if notice != "" {
		text = notice + "\n\n" + text
	}
	if err != nil {
		text = errorText(err) + "\n\n" + text
	}
	mid := b.show(chatID, editMsgID, text, &kb)
	b.setState(ctx, chatID, dialog.StateList, b.listPayload(s.Tag(), st, mid))
}

func (b *Bot) publishSearch(ctx context.Context, chatID int64, tag, text string) {
	b.search.Publish(ctx, search.Query{ChatID: chatID, Page: tag, Text: text})
	if b.search.Searching(chatID) {
		b.send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	}
}

// onListSearch — подписчик поиска экрана списка.
func (b *Bot) onListSearch(ctx context.Context, q search.Query) {
	s, ok := b.screens[q.Page]
	if !ok {
		return
	}
	st := b.state(ctx, q.ChatID)
	if st.State != dialog.StateList {
		return
	}
	if res, _ := dialog.GetString(st.Payload, keyRes); res != q.Page {
		return
	}
	ls, err := s.setQuery(ctx, q.ChatID, savedList(st.Payload), q.Text)
	if errors.Is(err, listing.ErrStale) {
		return
	}
	if mid, ok := dialog.GetInt64(st.Payload, keyMid); ok {
		m := int(mid)
		b.renderList(ctx, q.ChatID, &m, s, ls, "", err)
		return
	}
	b.renderList(ctx, q.ChatID, nil, s, ls, "", err)
}

// ls:<res>:<action>[:<arg>]
func (b *Bot) onListCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, st *dialog.Item) {
	chatID := cb.Message.Chat.ID
	mid := cb.Message.MessageID

	parts := strings.SplitN(strings.TrimPrefix(cb.Data, "ls:"), ":", 3)
	if len(parts) < 2 {
		b.answerCallback(cb, "Некорректные данные", true)
		return
	}
	s, ok := b.screens[parts[0]]
	if !ok {
		b.answerCallback(cb, "Неактуально", false)
		return
	}
	var arg int64
	if len(parts) == 3 {
		arg, _ = strconv.ParseInt(parts[2], 10, 64)
	}
	saved := listing.State{Page: 1}
	if res, _ := dialog.GetString(st.Payload, keyRes); res == s.Tag() {
		saved = savedList(st.Payload)
	}

	switch parts[1] {
	case "pg":
		ls, err := s.setPage(ctx, chatID, saved, int(arg))
		if errors.Is(err, listing.ErrStale) {
			b.answerCallback(cb, "", false)
			return
		}
		if err != nil {
			// список остаётся прежним
			b.answerCallback(cb, errorText(err), true)
			return
		}
		b.renderList(ctx, chatID, &mid, s, ls, "", nil)
		b.answerCallback(cb, "", false)

	case "rs":
		ls, err := s.setQuery(ctx, chatID, saved, "")
		if errors.Is(err, listing.ErrStale) {
			b.answerCallback(cb, "", false)
			return
		}
		b.renderList(ctx, chatID, &mid, s, ls, "", err)
		b.answerCallback(cb, "Поиск сброшен", false)

	case "back":
		b.search.Cancel(chatID)
		b.openList(ctx, chatID, &mid, s.Tag(), "")
		b.answerCallback(cb, "", false)

	case "it":
		b.search.Cancel(chatID)
		text, kb, ok := s.card(ctx, chatID, saved, arg)
		if !ok {
			b.answerCallback(cb, "Запись не найдена, обновите список", true)
			return
		}
		b.show(chatID, &mid, text, &kb)
		b.setState(ctx, chatID, dialog.StateList, b.listPayload(s.Tag(), saved, mid))
		b.answerCallback(cb, "", false)

	case "del":
		b.search.Cancel(chatID)
		if s.askReason() {
			p := b.listPayload(s.Tag(), saved, mid)
			p[keyDelID] = arg
			b.setState(ctx, chatID, dialog.StateDeleteReason, p)
			kb := tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Без причины", fmt.Sprintf("ls:%s:rm:%d", s.Tag(), arg)),
				),
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("ls:%s:it:%d", s.Tag(), arg)),
				),
			)
			b.show(chatID, &mid, "Укажите причину удаления сообщением.", &kb)
			b.answerCallback(cb, "", false)
			return
		}
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Да, удалить", fmt.Sprintf("ls:%s:rm:%d", s.Tag(), arg)),
				tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", fmt.Sprintf("ls:%s:it:%d", s.Tag(), arg)),
			),
		)
		b.show(chatID, &mid, "Удалить запись? Действие нельзя отменить.", &kb)
		b.answerCallback(cb, "", false)

	case "rm":
		b.doDelete(ctx, chatID, &mid, s, saved, arg, nil)
		b.answerCallback(cb, "", false)

	case "new":
		b.startCreate(ctx, chatID, &mid, s)
		b.answerCallback(cb, "", false)

	case "exp":
		kind, ok := s.exportKind()
		if !ok {
			b.answerCallback(cb, "Выгрузка недоступна", true)
			return
		}
		b.startExport(ctx, chatID, &mid, s.Tag(), kind)
		b.answerCallback(cb, "", false)

	default:
		b.answerCallback(cb, "Неактуально", false)
	}
}

func (b *Bot) onDeleteReason(ctx context.Context, chatID int64, st *dialog.Item, text string) {
	res, _ := dialog.GetString(st.Payload, keyRes)
	s, ok := b.screens[res]
	if !ok {
		b.resetState(ctx, chatID)
		return
	}
	id, _ := dialog.GetInt64(st.Payload, keyDelID)
	reason := strings.TrimSpace(text)
	b.doDelete(ctx, chatID, nil, s, savedList(st.Payload), id, &reason)
}

// doDelete удаляет запись через форму подтверждения. При отказе сервера
// список не меняется, показывается ошибка.
func (b *Bot) doDelete(ctx context.Context, chatID int64, editMsgID *int, s screen, saved listing.State, id int64, reason *string) {
	if reason != nil && (*reason == "" || *reason == "-") {
		reason = nil
	}
	m := b.modals.Get(chatID)
	m.Open()
	var ls listing.State
	var refetchErr error
	m.OnSuccess = func(ctx context.Context) {
		ls, refetchErr = s.refetch(ctx, chatID, saved)
	}
	res := m.Submit(ctx, nil, func(ctx context.Context) error {
		return s.remove(ctx, id, reason)
	})
	switch {
	case errors.Is(res.Err, mutation.ErrBusy):
		b.reply(chatID, "Подождите, предыдущее действие ещё выполняется.")
		return
	case res.Err != nil:
		m.Close()
		b.log.Warn("delete rejected", "res", s.Tag(), "id", id, "err", res.Err)
		text, kb := s.render(chatID)
		mid := b.show(chatID, editMsgID, errorText(res.Err)+"\n\n"+text, &kb)
		b.setState(ctx, chatID, dialog.StateList, b.listPayload(s.Tag(), saved, mid))
		return
	}
	if errors.Is(refetchErr, listing.ErrStale) {
		refetchErr = nil
	}
	b.renderList(ctx, chatID, editMsgID, s, ls, "✅ Запись удалена", refetchErr)
}
